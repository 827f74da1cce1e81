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

package exporter

import (
	"errors"
)

var (
	// ErrUnsupportedCurrency aborts a job whose shop currency the marketplace does not accept.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrNoProductsFound aborts a job whose first page query matches nothing.
	ErrNoProductsFound = errors.New("no products found for export")
	// ErrJobBusy rejects a step while another step or export holds the job.
	ErrJobBusy = errors.New("export job is busy")
	// ErrProgressMismatch rejects a step whose progress differs from the persisted one.
	ErrProgressMismatch = errors.New("export progress mismatch")
	// ErrJobCancelled is returned when the job was stopped or replaced while a step ran.
	ErrJobCancelled = errors.New("export job was cancelled")
)
