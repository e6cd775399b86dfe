package exempt

import (
	"testing"

	"github.com/dgnsrekt/tabfence/internal/types"
)

func TestGrantAndInvalidate(t *testing.T) {
	tr := NewTracker()

	if tr.IsExempt("T1", "example.com") {
		t.Fatal("fresh tracker should hold no exemptions")
	}

	tr.Grant("T1", "example.com")
	if !tr.IsExempt("T1", "example.com") {
		t.Fatal("granted pair not exempt")
	}
	if tr.IsExempt("T1", "other.com") {
		t.Fatal("exemption leaked to another domain")
	}
	if tr.IsExempt("T2", "example.com") {
		t.Fatal("exemption leaked to another tab")
	}

	tr.Invalidate("T1")
	if tr.IsExempt("T1", "example.com") {
		t.Fatal("exemption survived invalidation")
	}
}

func TestInvalidateClearsOnlyOneTab(t *testing.T) {
	tr := NewTracker()
	tr.Grant("T1", "a.com")
	tr.Grant("T1", "b.com")
	tr.Grant("T2", "a.com")

	tr.Invalidate("T1")

	if tr.IsExempt("T1", "a.com") || tr.IsExempt("T1", "b.com") {
		t.Fatal("T1 exemptions survived invalidation")
	}
	if !tr.IsExempt("T2", "a.com") {
		t.Fatal("T2 exemption removed by T1 invalidation")
	}
}

func TestDomainsSorted(t *testing.T) {
	tr := NewTracker()
	tr.Grant("T1", "zebra.net")
	tr.Grant("T1", "apple.org")
	tr.Grant("T1", "apple.org")

	got := tr.Domains("T1")
	if len(got) != 2 || got[0] != "apple.org" || got[1] != "zebra.net" {
		t.Fatalf("Domains = %v, want [apple.org zebra.net]", got)
	}
	if tr.Domains("T9") != nil {
		t.Fatal("Domains for unknown tab should be nil")
	}
}

func TestGrantIgnoresEmptyKeys(t *testing.T) {
	tr := NewTracker()
	tr.Grant("", "example.com")
	tr.Grant("T1", "")

	if tr.IsExempt("", "example.com") || tr.IsExempt("T1", "") {
		t.Fatal("empty tab or domain must not create an exemption")
	}

	var zero types.TabID
	if tr.IsExempt(zero, "") {
		t.Fatal("zero pair must never be exempt")
	}
}
