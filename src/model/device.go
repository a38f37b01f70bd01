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

// Device is one printer bound to the account.
type Device struct {
	Name           string  `json:"name"`
	Online         bool    `json:"online"`
	DevID          string  `json:"dev_id"`
	PrintStatus    string  `json:"print_status"`
	NozzleDiameter float64 `json:"nozzle_diameter"`
	DevModelName   string  `json:"dev_model_name"`
	DevAccessCode  string  `json:"dev_access_code"`
	DevProductName string  `json:"dev_product_name"`
}

// DevicesResponse is the envelope around the device binding endpoint.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}
