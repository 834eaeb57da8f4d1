// Package config loads karaoke render settings from TOML.
//
// Load starts from Default, overlays the file (if any), applies environment
// overrides, normalizes values and validates the result. The returned Config
// is passed by value to the packages that need it; nothing here keeps global
// state.
package config
