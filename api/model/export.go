/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/market-exporter/exporter/model"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// RunStep is the progress a caller passes to run the next export step.
type RunStep struct {
	Step       uint `json:"step"`
	TotalSteps uint `json:"total_steps"`
}

type ListRuns struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type ExportStatus struct {
	Running bool            `json:"running"`
	State   *model.JobState `json:"state,omitempty"`
}

func (r *RunStep) ValidateRunStep() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Step, validation.By(func(value interface{}) error {
			if r.TotalSteps == 0 && r.Step != 0 {
				return errors.New("must be 0 when total_steps is 0")
			}
			if r.TotalSteps > 0 && r.Step >= r.TotalSteps {
				return errors.New("must be lower than total_steps")
			}
			return nil
		})),
	)
}

func (l *ListRuns) AddDefaults() {
	if l.Limit == 0 {
		l.Limit = defaultRunsLimit
	}
}

func (l *ListRuns) ValidateListRuns() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Limit, validation.Min(1), validation.Max(maxRunsLimit)),
		validation.Field(&l.Offset, validation.Min(0)),
	)
}
