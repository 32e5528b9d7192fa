package ch

import "testing"

func TestBuildClientInfo(t *testing.T) {
	ci := BuildClientInfo(" trends ", "satyanetra-api")
	if len(ci.Products) != 5 {
		t.Fatalf("products = %d", len(ci.Products))
	}
	if ci.Products[0].Name != "satyanetra-api" || ci.Products[0].Version != "dev" {
		t.Fatalf("first product = %+v", ci.Products[0])
	}
	if ci.Products[1].Version != "trends" {
		t.Fatalf("role not trimmed: %q", ci.Products[1].Version)
	}
	if ci.Products[2].Version == "" || ci.Products[2].Version == "none" {
		t.Fatalf("commit should fall back to vcs info: %q", ci.Products[2].Version)
	}

	if ci := BuildClientInfo("", " "); ci.Products[0].Name != "satyanetra-api" {
		t.Fatalf("blank app should use the service name, got %q", ci.Products[0].Name)
	}
}

func TestOptions(t *testing.T) {
	if _, err := options(Config{}); err == nil {
		t.Fatalf("empty config should error")
	}
	o, err := options(Config{Addr: []string{"ch:9000"}, Database: "trends", Role: "api"})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if o.Auth.Database != "trends" || o.DialTimeout == 0 || len(o.ClientInfo.Products) == 0 {
		t.Fatalf("options = %+v", o)
	}
	o, err = options(Config{URL: "clickhouse://u:p@ch:9000/metrics"})
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if o.Auth.Database != "metrics" || o.Auth.Username != "u" {
		t.Fatalf("dsn auth = %+v", o.Auth)
	}
}
