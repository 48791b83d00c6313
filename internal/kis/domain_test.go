package kis

import "testing"

func TestNewDomainDefaults(t *testing.T) {
	real := NewDomain(false, "", "")
	if real.URL("/oauth2/tokenP") != RealBaseURL+"/oauth2/tokenP" {
		t.Errorf("Unexpected real URL: %s", real.URL("/oauth2/tokenP"))
	}
	if real.WSURL() != RealWSURL {
		t.Errorf("Unexpected real WS URL: %s", real.WSURL())
	}

	virtual := NewDomain(true, "", "")
	if virtual.URL("/oauth2/tokenP") != VirtualBaseURL+"/oauth2/tokenP" {
		t.Errorf("Unexpected virtual URL: %s", virtual.URL("/oauth2/tokenP"))
	}
	if virtual.WSURL() != VirtualWSURL {
		t.Errorf("Unexpected virtual WS URL: %s", virtual.WSURL())
	}
}

func TestNewDomainOverride(t *testing.T) {
	d := NewDomain(true, "http://127.0.0.1:9999/", "ws://127.0.0.1:9998")
	if got := d.URL("/uapi/hashkey"); got != "http://127.0.0.1:9999/uapi/hashkey" {
		t.Errorf("Override URL = %s", got)
	}
	if got := d.WSURL(); got != "ws://127.0.0.1:9998" {
		t.Errorf("Override WS URL = %s", got)
	}
	if !d.IsVirtual() {
		t.Error("Override must not change the virtual flag")
	}
}

func TestAdjustTRID(t *testing.T) {
	tests := []struct {
		virtual bool
		trID    string
		want    string
	}{
		{false, "TTTC8434R", "TTTC8434R"},
		{true, "TTTC8434R", "VTTC8434R"},
		{true, "JTTT3012R", "VTTT3012R"},
		{true, "CTSC0001R", "VTSC0001R"},
		// Quotation TR IDs are shared between domains
		{true, "FHKST01010100", "FHKST01010100"},
		{true, "HHDFS00000300", "HHDFS00000300"},
		{true, "", ""},
	}

	for _, tt := range tests {
		d := NewDomain(tt.virtual, "", "")
		if got := d.AdjustTRID(tt.trID); got != tt.want {
			t.Errorf("AdjustTRID(virtual=%v, %q) = %q, want %q", tt.virtual, tt.trID, got, tt.want)
		}
	}
}
