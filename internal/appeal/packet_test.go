package appeal

import (
	"errors"
	"strings"
	"testing"
)

func packetService(t *testing.T) *Service {
	t.Helper()
	svc := newTestService(&fakeSource{})
	svc.Store().SetProperty(subjectProperty())
	for _, c := range includedPair() {
		if _, err := svc.Store().AddComparable(c); err != nil {
			t.Fatal(err)
		}
	}
	return svc
}

func TestBuildPacketSequencing(t *testing.T) {
	svc := newTestService(&fakeSource{})

	// No property.
	_, err := svc.BuildPacket()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeSequencing {
		t.Fatalf("expected SequencingViolation without property, got %v", err)
	}

	// Property but nothing included.
	svc.Store().SetProperty(subjectProperty())
	if _, err := svc.BuildPacket(); err == nil {
		t.Fatal("expected SequencingViolation without included comparables")
	}

	// Comparables but no drafted argument.
	for _, c := range includedPair() {
		if _, err := svc.Store().AddComparable(c); err != nil {
			t.Fatal(err)
		}
	}
	_, err = svc.BuildPacket()
	if !errors.As(err, &ae) || ae.Code != CodeSequencing {
		t.Fatalf("expected SequencingViolation without argument, got %v", err)
	}
}

func TestBuildPacketAfterDraft(t *testing.T) {
	svc := packetService(t)
	view, err := svc.DraftArgument(ToneNeutral, 0)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := svc.BuildPacket()
	if err != nil {
		t.Fatal(err)
	}

	// Narrative appears verbatim.
	if !strings.Contains(doc, view.Argument.Narrative) {
		t.Fatal("packet does not contain the drafted narrative verbatim")
	}
	// Full included set appears in the comparable table.
	for _, addr := range []string{"1625 PACIFIC AV #7", "2150 WEBSTER ST"} {
		if !strings.Contains(doc, addr) {
			t.Fatalf("packet missing comparable %s", addr)
		}
	}
	for _, section := range []string{"# Assessment Appeal Evidence Packet", "## Subject Property", "## Comparable Sales", "## Appeal Narrative", "## Filing Checklist", "## How to Submit"} {
		if !strings.Contains(doc, section) {
			t.Fatalf("packet missing section %s", section)
		}
	}
}

func TestBuildPacketExcludedComparableOmitted(t *testing.T) {
	svc := packetService(t)
	if _, err := svc.Store().ToggleComparable("c2"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DraftArgument(ToneConcise, 0); err != nil {
		t.Fatal(err)
	}

	doc, err := svc.BuildPacket()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(doc, "2150 WEBSTER ST") {
		t.Fatal("excluded comparable leaked into the packet")
	}
}
