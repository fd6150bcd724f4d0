package ir

// Version is the registrar release reported by --version when the build
// does not inject one.
const Version = "0.1.0"
