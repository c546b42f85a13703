package repo

import "testing"

func TestParseRef(t *testing.T) {
	cases := []struct {
		raw    string
		scheme Scheme
		check  func(Ref) bool
	}{
		{"data/casos.parquet", SchemeFile, func(r Ref) bool { return r.Path == "data/casos.parquet" && r.Ext() == ".parquet" }},
		{"file:///srv/atlas/mexico.json", SchemeFile, func(r Ref) bool { return r.Path == "/srv/atlas/mexico.json" }},
		{"https://example.com/a/perfiles.csv?v=2", SchemeHTTP, func(r Ref) bool { return r.Ext() == ".csv" }},
		{"s3://artifacts/2023/casos.parquet", SchemeS3, func(r Ref) bool { return r.Bucket == "artifacts" && r.Key == "2023/casos.parquet" }},
		{"gdrive://1UM9B_EJ5K_D_H-XGYaGhX6IDP79Gki1M", SchemeGDrive, func(r Ref) bool { return r.ID == "1UM9B_EJ5K_D_H-XGYaGhX6IDP79Gki1M" && r.Ext() == "" }},
	}
	for _, tc := range cases {
		ref, err := ParseRef(tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if ref.Scheme != tc.scheme || !tc.check(ref) {
			t.Fatalf("%s: unexpected ref %+v", tc.raw, ref)
		}
	}
}

func TestParseRefRejects(t *testing.T) {
	for _, raw := range []string{"", "ftp://host/file", "s3://bucket-only", "gdrive://", "https://"} {
		if _, err := ParseRef(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
