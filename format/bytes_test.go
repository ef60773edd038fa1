package format

import "testing"

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1 KB"},
		{1500, "1.5 KB"},
		{12 * MegaByte, "12 MB"},
		{3 * GigaByte, "3 GB"},
		{2 * TeraByte, "2 TB"},
	}

	for _, tt := range cases {
		if got := HumanBytes(tt.in); got != tt.want {
			t.Errorf("HumanBytes(%d): erwartet %q, bekommen %q", tt.in, tt.want, got)
		}
	}
}

func TestHumanBytes2(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2 * KibiByte, "2.0 KiB"},
		{1024 * MebiByte, "1.0 GiB"},
		{MebiByte + MebiByte/2, "1.5 MiB"},
	}

	for _, tt := range cases {
		if got := HumanBytes2(tt.in); got != tt.want {
			t.Errorf("HumanBytes2(%d): erwartet %q, bekommen %q", tt.in, tt.want, got)
		}
	}
}
