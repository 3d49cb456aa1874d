package paging

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page, size string
		want       Page
		offset     int
		next, prev bool
	}{
		{
			name: "first of three", total: 25, page: "1", size: "10",
			want:   Page{Number: 1, Size: 10, TotalPages: 3, TotalCount: 25},
			offset: 0, next: true, prev: false,
		},
		{
			name: "middle page", total: 25, page: "2", size: "10",
			want:   Page{Number: 2, Size: 10, TotalPages: 3, TotalCount: 25},
			offset: 10, next: true, prev: true,
		},
		{
			name: "last page", total: 25, page: "3", size: "10",
			want:   Page{Number: 3, Size: 10, TotalPages: 3, TotalCount: 25},
			offset: 20, next: false, prev: true,
		},
		{
			name: "beyond last clamps to last", total: 25, page: "99", size: "10",
			want:   Page{Number: 3, Size: 10, TotalPages: 3, TotalCount: 25},
			offset: 20, next: false, prev: true,
		},
		{
			name: "zero clamps to last", total: 25, page: "0", size: "10",
			want:   Page{Number: 3, Size: 10, TotalPages: 3, TotalCount: 25},
			offset: 20, next: false, prev: true,
		},
		{
			name: "not a number selects first", total: 25, page: "abc", size: "10",
			want:   Page{Number: 1, Size: 10, TotalPages: 3, TotalCount: 25},
			offset: 0, next: true, prev: false,
		},
		{
			name: "empty result has one page", total: 0, page: "", size: "",
			want:   Page{Number: 1, Size: DefaultPageSize, TotalPages: 1, TotalCount: 0},
			offset: 0, next: false, prev: false,
		},
		{
			name: "exact multiple", total: 20, page: "2", size: "10",
			want:   Page{Number: 2, Size: 10, TotalPages: 2, TotalCount: 20},
			offset: 10, next: false, prev: true,
		},
		{
			name: "oversized page size is capped", total: 250, page: "1", size: "1000",
			want:   Page{Number: 1, Size: MaxPageSize, TotalPages: 3, TotalCount: 250},
			offset: 0, next: true, prev: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.total, tt.page, tt.size)
			if got != tt.want {
				t.Fatalf("New() = %+v, want %+v", got, tt.want)
			}
			if got.Offset() != tt.offset {
				t.Errorf("Offset() = %d, want %d", got.Offset(), tt.offset)
			}
			if got.HasNext() != tt.next {
				t.Errorf("HasNext() = %v, want %v", got.HasNext(), tt.next)
			}
			if got.HasPrev() != tt.prev {
				t.Errorf("HasPrev() = %v, want %v", got.HasPrev(), tt.prev)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int{
		"":    DefaultPageSize,
		"-3":  DefaultPageSize,
		"x":   DefaultPageSize,
		"5":   5,
		"100": 100,
		"101": MaxPageSize,
	}
	for in, want := range tests {
		if got := ParseSize(in); got != want {
			t.Errorf("ParseSize(%q) = %d, want %d", in, got, want)
		}
	}
}
