package device

import "testing"

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []Device
	}{
		{
			name: "two devices",
			out:  "List of devices attached\nemulator-5554\tdevice\nR58M123ABC\tdevice\n",
			want: []Device{
				{Serial: "emulator-5554", State: "device"},
				{Serial: "R58M123ABC", State: "device"},
			},
		},
		{
			name: "unauthorized device",
			out:  "List of devices attached\nabc123\tunauthorized\n",
			want: []Device{{Serial: "abc123", State: "unauthorized"}},
		},
		{
			name: "no devices",
			out:  "List of devices attached\n\n",
			want: nil,
		},
		{
			name: "windows line endings",
			out:  "List of devices attached\r\nemulator-5554\tdevice\r\n",
			want: []Device{{Serial: "emulator-5554", State: "device"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDeviceList(tt.out)
			if len(got) != len(tt.want) {
				t.Fatalf("parsed %d devices, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("device[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
