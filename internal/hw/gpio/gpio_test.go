package gpio

import "testing"

func TestNewDriver_Mock(t *testing.T) {
	d, err := NewDriver(DriverMock, "")
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if _, ok := d.(*MockDriver); !ok {
		t.Fatalf("expected *MockDriver, got %T", d)
	}
}

func TestNewDriver_Unknown(t *testing.T) {
	if _, err := NewDriver("bitbang", ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMockDriver_UnsetPinReadsLow(t *testing.T) {
	m := &MockDriver{}
	lvl, err := m.ReadPin(12)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if lvl != Low {
		t.Errorf("unset pin = %v, want Low", lvl)
	}
}

func TestMockDriver_WriteThenRead(t *testing.T) {
	m := &MockDriver{}
	if err := m.WritePin(4, High); err != nil {
		t.Fatalf("WritePin: %v", err)
	}
	lvl, _ := m.ReadPin(4)
	if lvl != High {
		t.Errorf("pin 4 = %v, want High", lvl)
	}
}

func TestMockDriver_SetLevel(t *testing.T) {
	m := &MockDriver{}
	m.SetLevel(8, High)
	lvl, _ := m.ReadPin(8)
	if lvl != High {
		t.Errorf("pin 8 = %v, want High", lvl)
	}
	m.SetLevel(8, Low)
	lvl, _ = m.ReadPin(8)
	if lvl != Low {
		t.Errorf("pin 8 = %v, want Low", lvl)
	}
}

func TestCheckBCMPin(t *testing.T) {
	for _, pin := range []int{0, 5, 17, MaxBCMPin} {
		if err := checkBCMPin(pin); err != nil {
			t.Errorf("pin %d: unexpected error %v", pin, err)
		}
	}
	for _, pin := range []int{-1, MaxBCMPin + 1, 40} {
		if err := checkBCMPin(pin); err == nil {
			t.Errorf("pin %d: expected error", pin)
		}
	}
}
