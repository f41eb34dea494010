package hardware_test

import (
	"errors"
	"sync"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/hardware/hardwaretest"
)

func TestActuator_OnThenOffLeavesOff(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO2", Num: 2}
	act := hardware.NewActuator(pin)

	if err := act.Set(hardware.On); err != nil {
		t.Fatalf("Set(On) error = %v", err)
	}
	if pin.Read() != gpio.High {
		t.Errorf("pin level after On = %v, want High", pin.Read())
	}
	if err := act.Set(hardware.Off); err != nil {
		t.Fatalf("Set(Off) error = %v", err)
	}

	state, err := act.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != hardware.Off {
		t.Errorf("State() = %v, want off", state)
	}
	if pin.Read() != gpio.Low {
		t.Errorf("pin level after Off = %v, want Low", pin.Read())
	}
}

func TestActuator_InitialStateOff(t *testing.T) {
	act := hardware.NewActuator(&hardwaretest.Pin{})

	state, err := act.State()
	if err != nil || state != hardware.Off {
		t.Errorf("State() = %v, %v; want off, nil", state, err)
	}
}

func TestActuator_WriteFailureIsFatalAndNotRetried(t *testing.T) {
	pin := &hardwaretest.Pin{}
	pin.SetError(errors.New("gpio: write failed"))
	act := hardware.NewActuator(pin)

	var faults []error
	act.SetFaultHandler(func(err error) { faults = append(faults, err) })

	err := act.Set(hardware.On)
	if !errors.Is(err, hardware.ErrFatalActuatorFault) {
		t.Fatalf("Set() error = %v, want ErrFatalActuatorFault", err)
	}
	if !hardware.IsFatal(err) {
		t.Error("IsFatal() = false for actuator fault")
	}
	if pin.Writes() != 1 {
		t.Errorf("pin writes = %d, want 1 (no retry)", pin.Writes())
	}
	if len(faults) != 1 || !errors.Is(faults[0], hardware.ErrFatalActuatorFault) {
		t.Errorf("fault handler calls = %v, want exactly one actuator fault", faults)
	}

	state, _ := act.State()
	if state != hardware.Off {
		t.Errorf("State() after failed write = %v, want off", state)
	}
}

func TestActuator_ConcurrentWritesLastWins(t *testing.T) {
	pin := &hardwaretest.Pin{}
	act := hardware.NewActuator(pin)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := hardware.Off
			if i%2 == 0 {
				state = hardware.On
			}
			_ = act.Set(state)
		}()
	}
	wg.Wait()

	if pin.Overlapped() {
		t.Error("pin saw overlapping writes")
	}

	state, err := act.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	wantLevel := gpio.Level(state == hardware.On)
	if pin.Level() != wantLevel {
		t.Errorf("logical state %v disagrees with pin level %v", state, pin.Level())
	}
}

func TestLEDState_String(t *testing.T) {
	if hardware.On.String() != "on" || hardware.Off.String() != "off" {
		t.Errorf("String() = %q/%q", hardware.On, hardware.Off)
	}
}
