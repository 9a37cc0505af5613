package xenon

// Version is the library version reported by the bundled commands.
const Version = "0.9.0"
