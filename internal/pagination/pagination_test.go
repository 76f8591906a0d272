package pagination

import "testing"

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"empty_uses_defaults", PageRequest{}, 1, DefaultPageSize},
		{"explicit_values_kept", PageRequest{Page: 3, PageSize: 50}, 3, 50},
		{"negative_values_reset", PageRequest{Page: -2, PageSize: -1}, 1, DefaultPageSize},
		{"oversized_page_clamped", PageRequest{Page: 2, PageSize: 1000}, 2, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			if p.Page != tt.wantPage || p.PageSize != tt.wantPageSize {
				t.Errorf("expected page %d size %d, got page %d size %d",
					tt.wantPage, tt.wantPageSize, p.Page, p.PageSize)
			}
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	p := PageRequest{Page: 3, PageSize: 20}
	if got := p.Offset(); got != 40 {
		t.Errorf("expected offset 40, got %d", got)
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("rounds_total_pages_up", func(t *testing.T) {
		resp := NewPageResponse([]int{1, 2}, 1, 20, 41)
		if resp.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", resp.TotalPages)
		}
	})

	t.Run("nil_data_becomes_empty", func(t *testing.T) {
		resp := NewPageResponse[int](nil, 1, 20, 0)
		if resp.Data == nil || len(resp.Data) != 0 {
			t.Errorf("expected empty non-nil data, got %#v", resp.Data)
		}
		if resp.TotalPages != 0 {
			t.Errorf("expected 0 pages, got %d", resp.TotalPages)
		}
	})

	t.Run("zero_page_size_has_no_pages", func(t *testing.T) {
		resp := NewPageResponse([]int{}, 1, 0, 5)
		if resp.TotalPages != 0 {
			t.Errorf("expected 0 pages, got %d", resp.TotalPages)
		}
	})
}
