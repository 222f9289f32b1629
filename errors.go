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

package rebinded

import (
	"errors"
	"fmt"
)

// ErrNoDriver indicates that no platform driver is available for the
// running operating system.
var ErrNoDriver = errors.New("rebinded: no platform driver for this operating system")

// ErrPermission indicates that the platform driver could not acquire the
// access it needs (e.g. read access to /dev/input, or SeDebugPrivilege
// equivalents on Windows).
var ErrPermission = errors.New("rebinded: insufficient permission to capture input")

// StartupPhase identifies which phase of daemon startup failed, so that
// the command-line front end can choose an appropriate exit code.
type StartupPhase int

const (
	PhaseUnknown StartupPhase = iota
	PhaseConfigIO
	PhaseConfigParse
	PhaseConfigValidation
	PhasePlatformInit
)

func (p StartupPhase) String() string {
	switch p {
	case PhaseConfigIO:
		return "config-io"
	case PhaseConfigParse:
		return "config-parse"
	case PhaseConfigValidation:
		return "config-validation"
	case PhasePlatformInit:
		return "platform-init"
	default:
		return "unknown"
	}
}

// StartupError wraps a failure that occurred during one of the fixed
// startup phases, so callers can distinguish "bad config" from
// "couldn't grab the keyboard" without string matching.
type StartupError struct {
	Phase StartupPhase
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("rebinded: %s: %v", e.Phase, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewStartupError wraps err with the given phase. If err is nil, NewStartupError
// returns nil.
func NewStartupError(phase StartupPhase, err error) error {
	if err == nil {
		return nil
	}
	return &StartupError{Phase: phase, Err: err}
}
