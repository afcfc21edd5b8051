package main

import "testing"

func TestParseArgsDefaults(t *testing.T) {
	opt, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs(nil): %v", err)
	}
	if opt.host != "127.0.0.1" || opt.port != 6379 {
		t.Fatalf("default host/port = %s:%d, want 127.0.0.1:6379", opt.host, opt.port)
	}
	if opt.clients != 50 || opt.requests != 10000 {
		t.Fatalf("default clients/requests = %d/%d, want 50/10000", opt.clients, opt.requests)
	}
	if !opt.keepalive {
		t.Fatal("default keepalive = false, want true")
	}
}

func TestParseArgsDataSizeSetsBothBounds(t *testing.T) {
	opt, err := parseArgs([]string{"datasize", "32"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.minDataSize != 32 || opt.maxDataSize != 32 {
		t.Fatalf("min/max = %d/%d, want 32/32", opt.minDataSize, opt.maxDataSize)
	}
}

func TestParseArgsDataSizeClampsToRange(t *testing.T) {
	opt, err := parseArgs([]string{"datasize", "0"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.minDataSize != 1 {
		t.Fatalf("datasize 0 should clamp to 1, got %d", opt.minDataSize)
	}

	opt, err = parseArgs([]string{"datasize", "99999999"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.maxDataSize != 1<<20 {
		t.Fatalf("oversized datasize should clamp to 2^20, got %d", opt.maxDataSize)
	}
}

func TestParseArgsBigAndVeryBig(t *testing.T) {
	opt, err := parseArgs([]string{"big"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.keyspace != 1000000 || opt.requests != 1000000 {
		t.Fatalf("big: keyspace/requests = %d/%d, want 1000000/1000000", opt.keyspace, opt.requests)
	}

	opt, err = parseArgs([]string{"verybig"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.keyspace != 10000000 || opt.requests != 10000000 {
		t.Fatalf("verybig: keyspace/requests = %d/%d, want 10000000/10000000", opt.keyspace, opt.requests)
	}
}

func TestParseArgsSwitchesAndKeywordsInterleave(t *testing.T) {
	opt, err := parseArgs([]string{"clients", "4", "check", "set", "50", "longtail", "longtailorder", "3"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.clients != 4 || !opt.check || opt.percents.Set != 50 || !opt.longtail || opt.longtailOrder != 3 {
		t.Fatalf("unexpected options: %+v", opt)
	}
}

func TestParseArgsUnknownTokenIsUsageError(t *testing.T) {
	_, err := parseArgs([]string{"frobnicate"})
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("err = %v (%T), want *usageError", err, err)
	}
}

func TestParseArgsMissingValueIsUsageError(t *testing.T) {
	_, err := parseArgs([]string{"clients"})
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("err = %v (%T), want *usageError", err, err)
	}
}

func TestParseArgsLongtailOrderOutOfRangeIsUsageError(t *testing.T) {
	_, err := parseArgs([]string{"longtailorder", "1"})
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("err = %v (%T), want *usageError", err, err)
	}

	_, err = parseArgs([]string{"longtailorder", "101"})
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("err = %v (%T), want *usageError", err, err)
	}
}

func TestParseArgsPercentageOutOfRangeIsUsageError(t *testing.T) {
	_, err := parseArgs([]string{"set", "101"})
	if _, ok := err.(*usageError); !ok {
		t.Fatalf("err = %v (%T), want *usageError", err, err)
	}
}

func TestParseArgsHelp(t *testing.T) {
	opt, err := parseArgs([]string{"help"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !opt.help {
		t.Fatal("help flag not set")
	}
}
