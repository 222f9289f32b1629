// Copyright 2025 The TCell Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rebinded implements a cross-platform keyboard and mouse-wheel
// remapping daemon. It captures input events at the OS level, applies a
// configurable set of bindings and debounce strategies, and re-injects
// or redirects the results as synthetic input, media key commands, or
// MPRIS player control calls.
//
// The package is organized around a small number of cooperating pieces:
// a Key Registry for naming and parsing key codes, a Window Probe and
// Target Selector for deciding which application or media player an
// event should affect, a Platform Driver that does the OS-specific
// capture and re-injection work, a Configuration Loader that turns a
// TOML file into a validated RuntimeConfig, and an Event Dispatcher
// that ties bindings to per-key Strategy state machines.
package rebinded
