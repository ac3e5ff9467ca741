package storageurl

import (
	"errors"
	"testing"
)

func TestRewrite_Grammars(t *testing.T) {
	tests := []struct {
		name string
		url  string
		db   string
		want string
	}{
		{
			name: "table grammar with query",
			url:  "ddb://us-east-1/kiara-table/olddb?x=1",
			db:   "newdb",
			want: "ddb://us-east-1/kiara-table/newdb?x=1",
		},
		{
			name: "table grammar without query",
			url:  "ddb://eu-west-1/t/olddb",
			db:   "newdb",
			want: "ddb://eu-west-1/t/newdb",
		},
		{
			name: "host grammar",
			url:  "srv://db.example.com/olddb",
			db:   "newdb",
			want: "srv://db.example.com/newdb",
		},
		{
			name: "host grammar preserves query",
			url:  "srv://db.example.com/olddb?tls=1&pool=4",
			db:   "newdb",
			want: "srv://db.example.com/newdb?tls=1&pool=4",
		},
		{
			name: "jdbc grammar keeps opaque suffix",
			url:  "sql://olddb?jdbc:postgresql://host:5432/storage",
			db:   "newdb",
			want: "sql://newdb?jdbc:postgresql://host:5432/storage",
		},
		{
			name: "file grammar keeps extension",
			url:  "file:/var/lib/kiara/system.db",
			db:   "ns1-books",
			want: "file:/var/lib/kiara/ns1-books.db",
		},
		{
			name: "file grammar without extension",
			url:  "file:/var/lib/kiara/system",
			db:   "other",
			want: "file:/var/lib/kiara/other",
		},
		{
			name: "mem grammar",
			url:  "mem://system",
			db:   "scratch",
			want: "mem://scratch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rewrite(tt.url, tt.db)
			if err != nil {
				t.Fatalf("Rewrite(%q, %q) failed: %v", tt.url, tt.db, err)
			}
			if got != tt.want {
				t.Errorf("Rewrite(%q, %q) = %q, want %q", tt.url, tt.db, got, tt.want)
			}
		})
	}
}

// Rewrites compose: rewriting to X and then to Y must be byte-equal to
// rewriting directly to Y. No grammar-specific data is lost.
func TestRewrite_Composes(t *testing.T) {
	urls := []string{
		"ddb://us-east-1/kiara-table/olddb?x=1",
		"srv://db.example.com/olddb?tls=1",
		"sql://olddb?jdbc:postgresql://host:5432/storage",
		"file:/var/lib/kiara/system.db",
		"mem://system",
	}
	for _, url := range urls {
		viaX, err := Rewrite(url, "x")
		if err != nil {
			t.Fatalf("Rewrite(%q, x) failed: %v", url, err)
		}
		viaXY, err := Rewrite(viaX, "y")
		if err != nil {
			t.Fatalf("Rewrite(%q, y) failed: %v", viaX, err)
		}
		direct, err := Rewrite(url, "y")
		if err != nil {
			t.Fatalf("Rewrite(%q, y) failed: %v", url, err)
		}
		if viaXY != direct {
			t.Errorf("rewrite of %q does not compose: %q != %q", url, viaXY, direct)
		}
	}
}

func TestRewrite_UnrecognizedScheme(t *testing.T) {
	for _, url := range []string{"bogus://host/db", "nocolonatall", ":leading"} {
		_, err := Rewrite(url, "newdb")
		if !errors.Is(err, ErrUnrecognizedScheme) {
			t.Errorf("Rewrite(%q) error = %v, want ErrUnrecognizedScheme", url, err)
		}
	}
}

func TestDBName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"ddb://us-east-1/t/mydb?x=1", "mydb"},
		{"srv://host/mydb", "mydb"},
		{"sql://mydb?jdbc:postgresql://h/s", "mydb"},
		{"file:/var/lib/kiara/system.db", "system"},
		{"mem://scratch", "scratch"},
	}
	for _, tt := range tests {
		got, err := DBName(tt.url)
		if err != nil {
			t.Fatalf("DBName(%q) failed: %v", tt.url, err)
		}
		if got != tt.want {
			t.Errorf("DBName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
