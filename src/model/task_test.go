package model

import (
	"encoding/json"
	"testing"
	"time"
)

const taskFixture = `{
	"total": 1,
	"hits": [{
		"id": 184205173,
		"designId": 902,
		"designTitle": "Benchy",
		"instanceId": 12,
		"modelId": "US48c16318d2",
		"title": "3DBenchy plate 1",
		"cover": "https://cdn.example.com/cover/184205173.png",
		"status": 4,
		"feedbackStatus": 0,
		"startTime": "2026-08-30T09:15:00Z",
		"endTime": "2026-08-30T10:07:30Z",
		"weight": 14.6,
		"length": 4890,
		"costTime": 3150,
		"profileId": 77,
		"plateIndex": 1,
		"plateName": "Plate 1",
		"deviceId": "00M00A380100123",
		"amsDetailMapping": [{
			"ams": 2,
			"sourceColor": "8E9089FF",
			"targetColor": "8E9089FF",
			"filamentId": "GFL99",
			"filamentType": "PLA",
			"targetFilamentType": "PLA",
			"weight": 14.6
		}],
		"mode": "cloud_file",
		"isPublicProfile": false,
		"isPrintable": true,
		"deviceModel": "P1S",
		"deviceName": "Workshop P1S",
		"bedType": "textured_plate"
	}]
}`

func TestTasksResponseDecode(t *testing.T) {
	var resp TasksResponse
	if err := json.Unmarshal([]byte(taskFixture), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(resp.Hits))
	}

	task := resp.Hits[0]
	if task.ID != 184205173 {
		t.Errorf("id = %d, want 184205173", task.ID)
	}
	if task.DesignTitle != "Benchy" {
		t.Errorf("designTitle = %q, want %q", task.DesignTitle, "Benchy")
	}
	if task.Title != "3DBenchy plate 1" {
		t.Errorf("title = %q", task.Title)
	}
	if task.Weight != 14.6 {
		t.Errorf("weight = %v, want 14.6", task.Weight)
	}
	if task.Length != 4890 {
		t.Errorf("length = %d, want 4890", task.Length)
	}
	if task.CostTime != 3150 {
		t.Errorf("costTime = %d, want 3150", task.CostTime)
	}
	if task.DeviceID != "00M00A380100123" {
		t.Errorf("deviceId = %q", task.DeviceID)
	}
	if !task.IsPrintable || task.IsPublicProfile {
		t.Errorf("flags = printable %v public %v, want true false", task.IsPrintable, task.IsPublicProfile)
	}

	wantStart := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	if !task.StartTime.Equal(wantStart) {
		t.Errorf("startTime = %v, want %v", task.StartTime, wantStart)
	}

	if len(task.AMSDetailMapping) != 1 {
		t.Fatalf("ams details = %d, want 1", len(task.AMSDetailMapping))
	}
	ams := task.AMSDetailMapping[0]
	if ams.Position != 2 || ams.FilamentType != "PLA" || ams.Weight != 14.6 {
		t.Errorf("ams detail = %+v", ams)
	}
}

func TestTaskDurations(t *testing.T) {
	task := Task{
		CostTime:  3150,
		StartTime: time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 30, 10, 7, 30, 0, time.UTC),
	}

	if got, want := task.CostDuration(), 3150*time.Second; got != want {
		t.Errorf("CostDuration = %v, want %v", got, want)
	}
	if got, want := task.Elapsed(), 52*time.Minute+30*time.Second; got != want {
		t.Errorf("Elapsed = %v, want %v", got, want)
	}

	unfinished := Task{StartTime: task.StartTime}
	if got := unfinished.Elapsed(); got != 0 {
		t.Errorf("Elapsed without end time = %v, want 0", got)
	}
}

func TestDeviceDecode(t *testing.T) {
	fixture := `{"devices": [{
		"name": "Workshop P1S",
		"online": true,
		"dev_id": "00M00A380100123",
		"print_status": "IDLE",
		"nozzle_diameter": 0.4,
		"dev_model_name": "C12",
		"dev_access_code": "12345678",
		"dev_product_name": "P1S"
	}]}`

	var resp DevicesResponse
	if err := json.Unmarshal([]byte(fixture), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(resp.Devices) != 1 {
		t.Fatalf("devices = %d, want 1", len(resp.Devices))
	}

	dev := resp.Devices[0]
	if dev.DevID != "00M00A380100123" || !dev.Online || dev.NozzleDiameter != 0.4 {
		t.Errorf("device = %+v", dev)
	}
}

func TestAccountDecode(t *testing.T) {
	fixture := `{
		"uid": 9123,
		"account": "maker@example.com",
		"name": "maker",
		"avatar": "https://cdn.example.com/avatar.png",
		"fanCount": 3,
		"productModels": ["P1S"],
		"point": 120,
		"personal": {
			"bio": "prints too much",
			"links": ["https://example.com"],
			"taskWeightSum": 812.4,
			"taskLengthSum": 271000,
			"taskTimeSum": 432000,
			"backgroundUrl": "https://cdn.example.com/bg.png"
		}
	}`

	var account Account
	if err := json.Unmarshal([]byte(fixture), &account); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if account.Email != "maker@example.com" {
		t.Errorf("email = %q", account.Email)
	}
	if account.Personal.TaskWeightSum != 812.4 {
		t.Errorf("taskWeightSum = %v", account.Personal.TaskWeightSum)
	}
}

func TestParseRegion(t *testing.T) {
	cases := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{"china", RegionChina, false},
		{"europe", RegionEurope, false},
		{"north-america", RegionNorthAmerica, false},
		{"asia-pacific", RegionAsiaPacific, false},
		{"other", RegionOther, false},
		{"", RegionOther, false},
		{"moon", "", true},
	}

	for _, tc := range cases {
		got, err := ParseRegion(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseRegion(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRegion(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRegion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegionEndpoints(t *testing.T) {
	if got := RegionChina.BaseURL(); got != "https://api.bambulab.cn" {
		t.Errorf("china base URL = %q", got)
	}
	if got := RegionEurope.BaseURL(); got != "https://api.bambulab.com" {
		t.Errorf("europe base URL = %q", got)
	}
	if got := RegionChina.MQTTHost(); got != "cn.mqtt.bambulab.com" {
		t.Errorf("china mqtt host = %q", got)
	}
	if got := RegionNorthAmerica.MQTTHost(); got != "us.mqtt.bambulab.com" {
		t.Errorf("global mqtt host = %q", got)
	}
}
