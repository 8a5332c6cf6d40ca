package led

import (
	"encoding/binary"
	"testing"

	"focusmute/internal/protocol"
	"focusmute/internal/transport"
)

func setupSelectedInput(t *testing.T, m *transport.Mock, selected byte) {
	t.Helper()
	if err := m.SetDescriptor(protocol.OffSelectedInput, []byte{selected}); err != nil {
		t.Fatalf("SetDescriptor: %v", err)
	}
}

func strategyOneInput() MuteStrategy {
	return MuteStrategy{
		InputIndices:    []int{0},
		NumberLEDs:      []uint8{0},
		SelectedColor:   0x20FF0000,
		UnselectedColor: 0x88FFFF00,
	}
}

func strategyBothInputs() MuteStrategy {
	return MuteStrategy{
		InputIndices:    []int{0, 1},
		NumberLEDs:      []uint8{0, 8},
		SelectedColor:   0x20FF0000,
		UnselectedColor: 0x88FFFF00,
	}
}

func TestSetSingleLEDWritesColourIndexNotify(t *testing.T) {
	m := transport.NewMock()
	color := uint32(0xFF000000)
	if err := SetSingleLED(m, 0, color); err != nil {
		t.Fatalf("SetSingleLED: %v", err)
	}

	descs := m.Descriptors()
	colour, ok := descs[protocol.OffDirectLEDColour]
	if !ok || binary.LittleEndian.Uint32(colour[:4]) != color {
		t.Errorf("directLEDColour = %v, want %#x", colour, color)
	}
	index, ok := descs[protocol.OffDirectLEDIndex]
	if !ok || index[0] != 0 {
		t.Errorf("directLEDIndex = %v, want [0]", index)
	}

	notifies := m.Notifies()
	found := false
	for _, n := range notifies {
		if n == protocol.NotifyDirectLEDColour {
			found = true
		}
	}
	if !found {
		t.Error("expected NotifyDirectLEDColour to be sent")
	}
}

func TestSetSingleLEDDoesNotTouchModeOrValues(t *testing.T) {
	m := transport.NewMock()
	if err := SetSingleLED(m, 0, 0xFF000000); err != nil {
		t.Fatalf("SetSingleLED: %v", err)
	}
	descs := m.Descriptors()
	if _, ok := descs[protocol.OffEnableDirectLED]; ok {
		t.Error("OffEnableDirectLED should not have been touched")
	}
	if _, ok := descs[protocol.OffDirectLEDValues]; ok {
		t.Error("OffDirectLEDValues should not have been touched")
	}
}

func TestApplyMuteSetsOnlyNumberLED(t *testing.T) {
	m := transport.NewMock()
	strategy := strategyOneInput()
	color := uint32(0xFF000000)

	if err := ApplyMuteIndicator(m, strategy, color); err != nil {
		t.Fatalf("ApplyMuteIndicator: %v", err)
	}

	descs := m.Descriptors()
	colour := descs[protocol.OffDirectLEDColour]
	if binary.LittleEndian.Uint32(colour[:4]) != color {
		t.Errorf("directLEDColour = %v, want %#x", colour, color)
	}
	if descs[protocol.OffDirectLEDIndex][0] != 0 {
		t.Errorf("directLEDIndex = %v, want [0]", descs[protocol.OffDirectLEDIndex])
	}
	if _, ok := descs[protocol.OffEnableDirectLED]; ok {
		t.Error("mode should not be changed")
	}
	if _, ok := descs[protocol.OffDirectLEDValues]; ok {
		t.Error("directLEDValues should not be changed")
	}

	notifies := m.Notifies()
	hasColour, hasValues := false, false
	for _, n := range notifies {
		if n == protocol.NotifyDirectLEDColour {
			hasColour = true
		}
		if n == protocol.NotifyDirectLEDValues {
			hasValues = true
		}
	}
	if !hasColour {
		t.Error("expected NotifyDirectLEDColour")
	}
	if hasValues {
		t.Error("did not expect NotifyDirectLEDValues")
	}
}

func TestApplyMuteBothNumberLEDs(t *testing.T) {
	m := transport.NewMock()
	strategy := strategyBothInputs()
	if err := ApplyMuteIndicator(m, strategy, 0xFF000000); err != nil {
		t.Fatalf("ApplyMuteIndicator: %v", err)
	}
	calls := m.TransactPayloads()
	count := 0
	for _, c := range calls {
		if c.Cmd == protocol.CmdDataNotify {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 DATA_NOTIFY calls, got %d", count)
	}
}

func TestApplyMutePerInputColors(t *testing.T) {
	m := transport.NewMock()
	strategy := strategyBothInputs()
	strategy.MuteColors = []uint32{0x00FF0000, 0x0000FF00}

	if err := ApplyMuteIndicator(m, strategy, 0xFF000000); err != nil {
		t.Fatalf("ApplyMuteIndicator: %v", err)
	}
	calls := m.TransactPayloads()
	var colours []uint32
	for _, c := range calls {
		if c.Cmd == protocol.CmdSetDescr {
			offset := binary.LittleEndian.Uint32(c.Payload[0:4])
			if offset == protocol.OffDirectLEDColour {
				colours = append(colours, binary.LittleEndian.Uint32(c.Payload[8:12]))
			}
		}
	}
	if len(colours) != 2 || colours[0] != 0x00FF0000 || colours[1] != 0x0000FF00 {
		t.Errorf("colours = %v", colours)
	}
}

func TestClearMuteIndicatorRestoresSelectedColor(t *testing.T) {
	m := transport.NewMock()
	setupSelectedInput(t, m, 0)
	strategy := strategyBothInputs()

	if err := ClearMuteIndicator(m, strategy); err != nil {
		t.Fatalf("ClearMuteIndicator: %v", err)
	}
	descs := m.Descriptors()
	colour := binary.LittleEndian.Uint32(descs[protocol.OffDirectLEDColour][:4])
	if colour != strategy.UnselectedColor {
		t.Errorf("last-written colour = %#x, want unselected (input 1 is not selected)", colour)
	}
}

func TestClearMuteIndicatorUsesSelectedColorForSelectedInput(t *testing.T) {
	m := transport.NewMock()
	setupSelectedInput(t, m, 1)
	strategy := MuteStrategy{
		InputIndices:    []int{1},
		NumberLEDs:      []uint8{8},
		SelectedColor:   0x20FF0000,
		UnselectedColor: 0x88FFFF00,
	}

	if err := ClearMuteIndicator(m, strategy); err != nil {
		t.Fatalf("ClearMuteIndicator: %v", err)
	}
	descs := m.Descriptors()
	colour := binary.LittleEndian.Uint32(descs[protocol.OffDirectLEDColour][:4])
	if colour != strategy.SelectedColor {
		t.Errorf("colour = %#x, want selected color", colour)
	}
}

func TestRestoreOnExitSameAsClear(t *testing.T) {
	m := transport.NewMock()
	setupSelectedInput(t, m, 0)
	strategy := strategyOneInput()
	if err := RestoreOnExit(m, strategy); err != nil {
		t.Fatalf("RestoreOnExit: %v", err)
	}
	descs := m.Descriptors()
	if _, ok := descs[protocol.OffDirectLEDColour]; !ok {
		t.Error("expected directLEDColour to be written")
	}
}

func TestRefreshAfterReconnectAppliesOnlyWhenMuted(t *testing.T) {
	m := transport.NewMock()
	strategy := strategyOneInput()

	if err := RefreshAfterReconnect(m, strategy, 0xFF000000, false); err != nil {
		t.Fatalf("RefreshAfterReconnect: %v", err)
	}
	if len(m.Notifies()) != 0 {
		t.Error("expected no LED writes when not muted")
	}

	if err := RefreshAfterReconnect(m, strategy, 0xFF000000, true); err != nil {
		t.Fatalf("RefreshAfterReconnect: %v", err)
	}
	if len(m.Notifies()) != 1 {
		t.Errorf("expected 1 notify after refresh while muted, got %d", len(m.Notifies()))
	}
}
