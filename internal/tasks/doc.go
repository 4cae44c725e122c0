// package tasks implements preset execution against the Tonie Cloud API.
//
// The core abstraction is PresetEngine, which runs a preset's actions in
// order and collects per-action results instead of aborting on the first
// failure. Operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks
