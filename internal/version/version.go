package version

// Current is the released version of profile-finder, without a "v" prefix.
const Current = "0.1.0"
