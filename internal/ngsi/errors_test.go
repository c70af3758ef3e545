package ngsi

import "testing"

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{200, 200},
		{204, 204},
		{400, 400},
		{404, 404},
		{503, 503},
		{1234, 500},
		{0, 500},
		{-1, 500},
		{99, 500},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips markup characters",
			input: `<script>alert('x')</script>`,
			want:  "scriptalertx/script",
		},
		{
			name:  "strips quoting and assignment",
			input: `id="thing"; drop`,
			want:  "idthing drop",
		},
		{
			name:  "plain text untouched",
			input: "no device was found with id: light1",
			want:  "no device was found with id: light1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	if err := NewDeviceNotFound("light1"); err.Code != 404 || err.Name != "DEVICE_NOT_FOUND" {
		t.Errorf("NewDeviceNotFound() = %+v", err)
	}
	if err := NewBadRequest("nope"); err.Code != 400 {
		t.Errorf("NewBadRequest() code = %d, want 400", err.Code)
	}
	if err := NewConfigurationError("update"); err.Code != 500 {
		t.Errorf("NewConfigurationError() code = %d, want 500", err.Code)
	}
	if err := NewNotificationError("404"); err.Code != 400 || err.Name != "NOTIFICATION_ERROR" {
		t.Errorf("NewNotificationError() = %+v", err)
	}
}
