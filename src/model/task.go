// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package model

import "time"

// Task is one print-job record as the cloud reports it. Fields mirror
// the vendor JSON; nothing here is derived or mutated after decode.
type Task struct {
	ID               int64       `json:"id"`
	DesignID         int64       `json:"designId"`
	DesignTitle      string      `json:"designTitle"`
	InstanceID       int64       `json:"instanceId"`
	ModelID          string      `json:"modelId"`
	Title            string      `json:"title"`
	Cover            string      `json:"cover"`
	Status           int         `json:"status"`
	FeedbackStatus   int         `json:"feedbackStatus"`
	StartTime        time.Time   `json:"startTime"`
	EndTime          time.Time   `json:"endTime"`
	Weight           float64     `json:"weight"`   // filament weight, grams
	Length           int64       `json:"length"`   // filament length, millimeters
	CostTime         int64       `json:"costTime"` // print time, seconds
	ProfileID        int64       `json:"profileId"`
	PlateIndex       int         `json:"plateIndex"`
	PlateName        string      `json:"plateName"`
	DeviceID         string      `json:"deviceId"`
	AMSDetailMapping []AMSDetail `json:"amsDetailMapping"`
	Mode             string      `json:"mode"`
	IsPublicProfile  bool        `json:"isPublicProfile"`
	IsPrintable      bool        `json:"isPrintable"`
	DeviceModel      string      `json:"deviceModel"`
	DeviceName       string      `json:"deviceName"`
	BedType          string      `json:"bedType"`
}

// AMSDetail describes one filament slot consumed by a task.
type AMSDetail struct {
	Position           int     `json:"ams"`
	SourceColor        string  `json:"sourceColor"`
	TargetColor        string  `json:"targetColor"`
	FilamentID         string  `json:"filamentId"`
	FilamentType       string  `json:"filamentType"`
	TargetFilamentType string  `json:"targetFilamentType"`
	Weight             float64 `json:"weight"`
}

// CostDuration returns the reported print time as a Duration.
func (t *Task) CostDuration() time.Duration {
	return time.Duration(t.CostTime) * time.Second
}

// Elapsed returns the wall-clock span between start and end, or zero
// when either timestamp is missing.
func (t *Task) Elapsed() time.Duration {
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}

// TasksResponse is the envelope around the task listing endpoint.
type TasksResponse struct {
	Total int    `json:"total"`
	Hits  []Task `json:"hits"`
}
