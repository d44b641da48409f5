package alerts

import (
	"testing"

	"github.com/Auyante/refineryiq-system/models"
)

func TestRaiseDeduplicates(t *testing.T) {
	m := NewManager()

	first, created := m.Raise(models.ConditionHighFailureRisk, "PUMP-CDU-101", "CDU-101", "", models.SeverityHigh, "risk over threshold")
	if !created {
		t.Fatal("first crossing must create an alert")
	}

	// Same condition fires again on the next cycle.
	second, created := m.Raise(models.ConditionHighFailureRisk, "PUMP-CDU-101", "CDU-101", "", models.SeverityHigh, "risk over threshold")
	if created {
		t.Fatal("repeated crossing must reuse the open alert")
	}
	if second.ID != first.ID {
		t.Fatalf("dedup returned a different alert: %s vs %s", second.ID, first.ID)
	}
	if m.OpenCount() != 1 {
		t.Fatalf("open count = %d, want 1", m.OpenCount())
	}
}

func TestDedupScopedPerEntityAndCondition(t *testing.T) {
	m := NewManager()

	m.Raise(models.ConditionHighFailureRisk, "PUMP-CDU-101", "CDU-101", "", models.SeverityHigh, "msg")
	m.Raise(models.ConditionHighFailureRisk, "COMP-FCC-201", "FCC-201", "", models.SeverityHigh, "msg")
	m.Raise(models.ConditionZeroDayAnomaly, "PUMP-CDU-101", "CDU-101", "", models.SeverityHigh, "msg")

	if m.OpenCount() != 3 {
		t.Fatalf("open count = %d, want 3 distinct (entity, condition) pairs", m.OpenCount())
	}
}

func TestAcknowledgeIsTerminal(t *testing.T) {
	m := NewManager()

	alert, _ := m.Raise(models.ConditionLowStability, "plant", "", "", models.SeverityMedium, "msg")

	acked, err := m.Acknowledge(alert.ID, "operator-7")
	if err != nil {
		t.Fatal(err)
	}
	if !acked.Acknowledged || acked.AcknowledgedBy != "operator-7" || acked.AcknowledgedAt == nil {
		t.Fatalf("acknowledgment not recorded: %+v", acked)
	}
	if m.OpenCount() != 0 {
		t.Fatalf("open count after ack = %d, want 0", m.OpenCount())
	}

	if _, err := m.Acknowledge(alert.ID, "operator-8"); err != ErrAlreadyAcknowledged {
		t.Fatalf("second ack error = %v, want ErrAlreadyAcknowledged", err)
	}
}

func TestReRaiseAfterAcknowledge(t *testing.T) {
	m := NewManager()

	first, _ := m.Raise(models.ConditionLowEfficiency, "CDU-101", "CDU-101", "CDU-101.energy", models.SeverityMedium, "msg")
	if _, err := m.Acknowledge(first.ID, "op"); err != nil {
		t.Fatal(err)
	}

	second, created := m.Raise(models.ConditionLowEfficiency, "CDU-101", "CDU-101", "CDU-101.energy", models.SeverityMedium, "msg")
	if !created {
		t.Fatal("crossing after acknowledgment must create a fresh alert")
	}
	if second.ID == first.ID {
		t.Fatal("fresh alert reused the acknowledged record's ID")
	}
}

func TestAcknowledgeUnknownID(t *testing.T) {
	m := NewManager()
	if _, err := m.Acknowledge("no-such-id", "op"); err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	m := NewManager()

	m.Raise(models.ConditionHighFailureRisk, "a", "", "", models.SeverityHigh, "first")
	m.Raise(models.ConditionHighFailureRisk, "b", "", "", models.SeverityHigh, "second")
	m.Raise(models.ConditionHighFailureRisk, "c", "", "", models.SeverityHigh, "third")

	list := m.List(2)
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}
	if list[0].Message != "third" || list[1].Message != "second" {
		t.Fatalf("unexpected order: %+v", list)
	}

	all := m.List(0)
	if len(all) != 3 {
		t.Fatalf("List(0) length = %d, want all 3", len(all))
	}
}
