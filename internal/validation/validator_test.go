package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hitoshi/chargemap/internal/model"
)

func num(v float64) *Number {
	n := Number(v)
	return &n
}

func strPtr(s string) *string {
	return &s
}

func validCreateRequest() *CreateStationRequest {
	return &CreateStationRequest{
		Name:          "Station A",
		Location:      &LocationInput{Type: "Point", Coordinates: []Number{139.76, 35.68}},
		PowerOutput:   num(50),
		ConnectorType: "DC Fast",
	}
}

// fieldErrors はerrからVALIDATION_ERRORのフィールドエラーを取り出す。
func fieldErrors(t *testing.T, err error) []model.FieldError {
	t.Helper()

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("expected code %s, got %s", model.ErrCodeValidation, apiErr.Code)
	}
	return apiErr.Fields
}

func hasParam(fields []model.FieldError, param string) bool {
	for _, f := range fields {
		if f.Param == param {
			return true
		}
	}
	return false
}

func TestCreateStationRequest_Valid(t *testing.T) {
	req := validCreateRequest()
	req.Normalize()

	if err := req.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCreateStationRequest_CoordinateBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		coords  []Number
		wantErr bool
	}{
		{"longitude out of range", []Number{200, 45}, true},
		{"latitude out of range", []Number{45, -95}, true},
		{"north pole boundary", []Number{45, 90}, false},
		{"south west corner", []Number{-180, -90}, false},
		{"east boundary", []Number{180, 0}, false},
		{"single element", []Number{45}, true},
		{"three elements", []Number{1, 2, 3}, true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			req.Location.Coordinates = tt.coords
			req.Normalize()

			err := req.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			fields := fieldErrors(t, err)
			if len(fields) != 1 {
				t.Fatalf("expected 1 field error, got %d: %+v", len(fields), fields)
			}
			if fields[0].Param != "location.coordinates" {
				t.Errorf("Param = %q, want %q", fields[0].Param, "location.coordinates")
			}
			if fields[0].Msg != CoordinatesMessage {
				t.Errorf("Msg = %q, want %q", fields[0].Msg, CoordinatesMessage)
			}
		})
	}
}

func TestCreateStationRequest_CollectsAllViolations(t *testing.T) {
	req := &CreateStationRequest{
		Name:          "   ",
		Location:      &LocationInput{Coordinates: []Number{200, 45}},
		Status:        "broken",
		PowerOutput:   num(0.5),
		ConnectorType: "CHAdeMO",
	}
	req.Normalize()

	fields := fieldErrors(t, req.Validate())

	for _, param := range []string{"name", "location.coordinates", "status", "powerOutput", "connectorType"} {
		if !hasParam(fields, param) {
			t.Errorf("expected field error for %q, got %+v", param, fields)
		}
	}
}

func TestCreateStationRequest_MissingRequiredFields(t *testing.T) {
	req := &CreateStationRequest{}
	req.Normalize()

	fields := fieldErrors(t, req.Validate())

	for _, param := range []string{"name", "location", "powerOutput", "connectorType"} {
		if !hasParam(fields, param) {
			t.Errorf("expected field error for %q, got %+v", param, fields)
		}
	}
}

func TestCreateStationRequest_NameTooLong(t *testing.T) {
	req := validCreateRequest()
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	req.Name = string(long)
	req.Normalize()

	fields := fieldErrors(t, req.Validate())
	if len(fields) != 1 || fields[0].Param != "name" {
		t.Fatalf("expected single name error, got %+v", fields)
	}
	if fields[0].Msg != "Name cannot exceed 100 characters" {
		t.Errorf("Msg = %q", fields[0].Msg)
	}
}

func TestCreateStationRequest_TopLevelLatLng(t *testing.T) {
	req := validCreateRequest()
	req.Location = nil
	req.Latitude = num(35.5)
	req.Longitude = num(139.5)
	req.Normalize()

	if err := req.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	station := req.Station("owner-1")
	if station.Location.Longitude != 139.5 || station.Location.Latitude != 35.5 {
		t.Errorf("Location = %+v, want lon 139.5 lat 35.5", station.Location)
	}
}

func TestCreateStationRequest_InvalidLocationType(t *testing.T) {
	req := validCreateRequest()
	req.Location.Type = "Polygon"
	req.Normalize()

	fields := fieldErrors(t, req.Validate())
	if !hasParam(fields, "location.type") {
		t.Errorf("expected location.type error, got %+v", fields)
	}
}

func TestCreateStationRequest_Station_DefaultsStatusActive(t *testing.T) {
	req := validCreateRequest()
	req.Normalize()

	station := req.Station("owner-1")
	if station.Status != model.StationStatusActive {
		t.Errorf("Status = %q, want %q", station.Status, model.StationStatusActive)
	}
	if station.CreatedBy != "owner-1" {
		t.Errorf("CreatedBy = %q, want %q", station.CreatedBy, "owner-1")
	}
	if station.PowerOutput != 50 {
		t.Errorf("PowerOutput = %v, want 50", station.PowerOutput)
	}
}

func TestCreateStationRequest_DecodesNumericStrings(t *testing.T) {
	body := `{
		"name": "  Station B  ",
		"location": {"type": "Point", "coordinates": ["139.7", "35.6"]},
		"powerOutput": "22",
		"connectorType": "Level 2",
		"createdBy": "someone-else"
	}`

	var req CreateStationRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	station := req.Station("owner-1")
	if station.Name != "Station B" {
		t.Errorf("Name = %q, want %q", station.Name, "Station B")
	}
	if station.PowerOutput != 22 {
		t.Errorf("PowerOutput = %v, want 22", station.PowerOutput)
	}
	if station.Location.Longitude != 139.7 || station.Location.Latitude != 35.6 {
		t.Errorf("Location = %+v", station.Location)
	}
	if station.CreatedBy != "owner-1" {
		t.Errorf("CreatedBy = %q, want owner-1", station.CreatedBy)
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
	}{
		{"数値はそのまま受け付ける", `50`, true, 50},
		{"数値文字列は前後空白を除いて受け付ける", `" 22.5 "`, true, 22.5},
		{"指数表記の文字列も受け付ける", `"1e1"`, true, 10},
		{"数値でない文字列は不正として保持する", `"abc"`, false, 0},
		{"空文字列は不正として保持する", `""`, false, 0},
		{"NaNは不正として保持する", `"NaN"`, false, 0},
		{"Infは不正として保持する", `"Inf"`, false, 0},
		{"真偽値は不正として保持する", `true`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatalf("unmarshal must not fail, got %v", err)
			}
			if n.Valid() != tt.wantValid {
				t.Fatalf("Valid() = %v, want %v", n.Valid(), tt.wantValid)
			}
			if tt.wantValid && float64(n) != tt.want {
				t.Errorf("value = %v, want %v", float64(n), tt.want)
			}
		})
	}
}

func TestCreateStationRequest_NonNumericValues_ReportedWithOtherErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantParams []string
	}{
		{
			name:       "name欠落と数値でないpowerOutputを同時に報告する",
			body:       `{"location": {"coordinates": [139.7, 35.6]}, "powerOutput": "abc", "connectorType": "Level 2"}`,
			wantParams: []string{"name", "powerOutput"},
		},
		{
			name:       "数値でない座標は座標エラーになる",
			body:       `{"name": "A", "latitude": "", "longitude": "x", "powerOutput": "abc", "connectorType": "Level 2"}`,
			wantParams: []string{"location.coordinates", "powerOutput"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateStationRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			req.Normalize()

			fields := fieldErrors(t, req.Validate())
			for _, param := range tt.wantParams {
				if !hasParam(fields, param) {
					t.Errorf("expected field error for %q, got %+v", param, fields)
				}
			}
			for _, f := range fields {
				if f.Param == "powerOutput" && f.Msg != "powerOutput must be a number" {
					t.Errorf("powerOutput msg = %q", f.Msg)
				}
			}
		})
	}
}

func TestUpdateStationRequest_NonNumericPower_ReturnsFieldError(t *testing.T) {
	var req UpdateStationRequest
	if err := json.Unmarshal([]byte(`{"name": "", "powerOutput": "fast"}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	req.Normalize()

	fields := fieldErrors(t, req.Validate())
	if !hasParam(fields, "name") || !hasParam(fields, "powerOutput") {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestUpdateStationRequest_Empty_ReturnsError(t *testing.T) {
	req := &UpdateStationRequest{}
	req.Normalize()

	fields := fieldErrors(t, req.Validate())
	if len(fields) != 1 || fields[0].Msg != "No updatable fields provided" {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestUpdateStationRequest_PartialUpdate(t *testing.T) {
	req := &UpdateStationRequest{PowerOutput: num(75)}
	req.Normalize()

	if err := req.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	patch := req.Patch()
	if patch.PowerOutput == nil || *patch.PowerOutput != 75 {
		t.Errorf("PowerOutput = %v, want 75", patch.PowerOutput)
	}
	if patch.Name != nil || patch.Location != nil || patch.Status != nil || patch.ConnectorType != nil {
		t.Errorf("expected other fields nil, got %+v", patch)
	}
}

func TestUpdateStationRequest_InvalidValues(t *testing.T) {
	req := &UpdateStationRequest{
		Name:        strPtr("  "),
		Status:      strPtr("Active"),
		PowerOutput: num(0),
		Location:    &LocationInput{Coordinates: []Number{45, -95}},
	}
	req.Normalize()

	fields := fieldErrors(t, req.Validate())
	for _, param := range []string{"name", "status", "powerOutput", "location.coordinates"} {
		if !hasParam(fields, param) {
			t.Errorf("expected field error for %q, got %+v", param, fields)
		}
	}
}

func TestUpdateStationRequest_OnlyLatitude_ReturnsError(t *testing.T) {
	req := &UpdateStationRequest{Latitude: num(10)}
	req.Normalize()

	fields := fieldErrors(t, req.Validate())
	if !hasParam(fields, "location") {
		t.Errorf("expected location error, got %+v", fields)
	}
}

func TestRegisterRequest_NormalizesEmail(t *testing.T) {
	req := &RegisterRequest{Email: "  Alice@Example.COM ", Password: "secret1"}

	if err := req.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", req.Email, "alice@example.com")
	}
}

func TestRegisterRequest_Invalid(t *testing.T) {
	req := &RegisterRequest{Email: "not-an-email", Password: "12345"}

	fields := fieldErrors(t, req.Validate())
	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", fields)
	}
	if !hasParam(fields, "email") || !hasParam(fields, "password") {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestLoginRequest_MissingPassword(t *testing.T) {
	req := &LoginRequest{Email: "alice@example.com"}

	fields := fieldErrors(t, req.Validate())
	if len(fields) != 1 || fields[0].Param != "password" || fields[0].Msg != "Password is required" {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestListStationsQuery_Filter(t *testing.T) {
	q := &ListStationsQuery{Status: "active", MinPower: "20", MaxPower: " 50 ", ConnectorType: "DC Fast"}

	if err := q.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f := q.Filter()
	if f.Status != model.StationStatusActive || f.ConnectorType != model.ConnectorDCFast {
		t.Errorf("unexpected filter: %+v", f)
	}
	if f.MinPower == nil || *f.MinPower != 20 {
		t.Errorf("MinPower = %v, want 20", f.MinPower)
	}
	if f.MaxPower == nil || *f.MaxPower != 50 {
		t.Errorf("MaxPower = %v, want 50", f.MaxPower)
	}
}

func TestListStationsQuery_Empty_NoConditions(t *testing.T) {
	q := &ListStationsQuery{}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f := q.Filter()
	if f.Status != "" || f.ConnectorType != "" || f.MinPower != nil || f.MaxPower != nil {
		t.Errorf("expected empty filter, got %+v", f)
	}
}

func TestListStationsQuery_Invalid(t *testing.T) {
	q := &ListStationsQuery{Status: "open", MinPower: "abc", ConnectorType: "Type 2"}

	fields := fieldErrors(t, q.Validate())
	for _, param := range []string{"status", "minPower", "connectorType"} {
		if !hasParam(fields, param) {
			t.Errorf("expected field error for %q, got %+v", param, fields)
		}
	}
}

func TestListStationsQuery_PowerNumberForms(t *testing.T) {
	tests := []struct {
		name     string
		minPower string
		maxPower string
		wantMin  float64
		wantMax  float64
	}{
		{"指数表記を受け付ける", "1e1", "5E1", 10, 50},
		{"先頭の0を省略した小数を受け付ける", ".5", "2.5", 0.5, 2.5},
		{"符号付きの値を受け付ける", "+7", "-1", 7, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &ListStationsQuery{MinPower: tt.minPower, MaxPower: tt.maxPower}
			if err := q.Validate(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			f := q.Filter()
			if f.MinPower == nil || *f.MinPower != tt.wantMin {
				t.Errorf("MinPower = %v, want %v", f.MinPower, tt.wantMin)
			}
			if f.MaxPower == nil || *f.MaxPower != tt.wantMax {
				t.Errorf("MaxPower = %v, want %v", f.MaxPower, tt.wantMax)
			}
		})
	}
}

func TestListStationsQuery_NonFinitePower_ReturnsError(t *testing.T) {
	for _, tt := range []struct {
		name  string
		value string
	}{
		{"NaNは数値として扱わない", "NaN"},
		{"Infは数値として扱わない", "Inf"},
		{"単位付きの値は数値として扱わない", "10kW"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			q := &ListStationsQuery{MinPower: tt.value}

			fields := fieldErrors(t, q.Validate())
			if len(fields) != 1 || fields[0].Param != "minPower" || fields[0].Msg != "minPower must be a number" {
				t.Errorf("unexpected fields: %+v", fields)
			}
		})
	}
}

func TestParseRadiusQuery(t *testing.T) {
	q, err := ParseRadiusQuery("35.68", "139.76", "5")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if q.Latitude != 35.68 || q.Longitude != 139.76 || q.Distance != 5 {
		t.Errorf("unexpected query: %+v", q)
	}
	if err := q.Validate(); err != nil {
		t.Errorf("expected valid query, got %v", err)
	}
}

func TestParseRadiusQuery_NonNumeric(t *testing.T) {
	_, err := ParseRadiusQuery("north", "139.76", "Inf")

	fields := fieldErrors(t, err)
	if !hasParam(fields, "latitude") || !hasParam(fields, "distance") {
		t.Errorf("unexpected fields: %+v", fields)
	}
	if hasParam(fields, "longitude") {
		t.Errorf("longitude should be valid, got %+v", fields)
	}
}

func TestRadiusQuery_Validate_OutOfRange(t *testing.T) {
	q := &RadiusQuery{Latitude: 91, Longitude: -181, Distance: -1}

	fields := fieldErrors(t, q.Validate())
	if len(fields) != 3 {
		t.Errorf("expected 3 field errors, got %+v", fields)
	}
}
