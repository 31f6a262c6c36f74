package storage

import "testing"

func TestParseRef(t *testing.T) {
	bucket, key, err := ParseRef("s3://scores/exports/abc.csv")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if bucket != "scores" || key != "exports/abc.csv" {
		t.Fatalf("unexpected split: bucket=%q key=%q", bucket, key)
	}
	if got := Ref(bucket, key); got != "s3://scores/exports/abc.csv" {
		t.Fatalf("Ref round trip = %q", got)
	}

	for _, bad := range []string{"scores/abc.csv", "s3://", "s3://scores", "s3://scores/", "s3:///abc.csv"} {
		if _, _, err := ParseRef(bad); err == nil {
			t.Fatalf("ParseRef(%q): expected error", bad)
		}
	}
}
