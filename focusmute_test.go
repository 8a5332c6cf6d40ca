package focusmute

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"focusmute/internal/led"
	"focusmute/internal/protocol"
	"focusmute/internal/schema"
	"focusmute/internal/transport"
)

func testStrategy() led.MuteStrategy {
	return led.MuteStrategy{
		InputIndices:    []int{0},
		NumberLEDs:      []uint8{0},
		SelectedColor:   0x20FF0000,
		UnselectedColor: 0x88FFFF00,
	}
}

func TestCloseDeviceNilIsNoop(t *testing.T) {
	if err := CloseDevice(nil); err != nil {
		t.Fatalf("CloseDevice(nil) = %v, want nil", err)
	}
}

func TestReadDescriptorIssuesGetDescr(t *testing.T) {
	mt := transport.NewMock()
	mt.SetDescriptor(0x10, []byte{1, 2, 3, 4})

	b, err := ReadDescriptor(mt, 0x10, 4)
	if err != nil {
		t.Fatalf("ReadDescriptor: %v", err)
	}
	if len(b) != 4 {
		t.Fatalf("len(b) = %d, want 4", len(b))
	}
}

func TestApplyAndClearIndicator(t *testing.T) {
	mt := transport.NewMock()
	mt.SetDescriptor(protocol.OffSelectedInput, []byte{0})
	strategy := testStrategy()

	if err := ApplyIndicator(mt, strategy, 0xFF0000FF); err != nil {
		t.Fatalf("ApplyIndicator: %v", err)
	}
	color, ok := mt.Descriptors()[protocol.OffDirectLEDColour]
	if !ok {
		t.Fatal("expected direct LED color descriptor to be set")
	}
	if len(color) != 4 {
		t.Fatalf("color len = %d, want 4", len(color))
	}

	if err := ClearIndicator(mt, strategy); err != nil {
		t.Fatalf("ClearIndicator: %v", err)
	}
}

func TestRestoreOnExitNilTransportIsNoop(t *testing.T) {
	RestoreOnExit(nil, testStrategy(), nil)
}

func TestRestoreOnExitLogsOnFailure(t *testing.T) {
	mt := transport.NewMock()
	mt.FailSetDescriptor = true
	var buf bytes.Buffer
	RestoreOnExit(mt, testStrategy(), log.New(&buf, "", 0))
	if !strings.Contains(buf.String(), "restore_on_exit") {
		t.Errorf("log output = %q, want a restore_on_exit failure line", buf.String())
	}
}

type memCache struct {
	saved []schema.Constants
	hit   schema.Constants
	ok    bool
}

func (c *memCache) Load(modelName, firmwareVersion string) (schema.Constants, bool) {
	return c.hit, c.ok
}

func (c *memCache) Save(constants schema.Constants) error {
	c.saved = append(c.saved, constants)
	return nil
}

func TestExtractSchemaReturnsCacheHit(t *testing.T) {
	cache := &memCache{hit: schema.Constants{ProductName: "cached"}, ok: true}
	mt := transport.NewMock()

	c, err := ExtractSchema(mt, cache, "Scarlett 2i2", "1.2.3", nil)
	if err != nil {
		t.Fatalf("ExtractSchema: %v", err)
	}
	if c.ProductName != "cached" {
		t.Errorf("ProductName = %q, want %q", c.ProductName, "cached")
	}
	if len(cache.saved) != 0 {
		t.Error("expected no save on cache hit")
	}
}

func TestExtractSchemaMissPropagatesExtractError(t *testing.T) {
	cache := &memCache{}
	mt := transport.NewMock()

	_, err := ExtractSchema(mt, cache, "Scarlett 2i2", "1.2.3", nil)
	if err == nil {
		t.Fatal("expected an error from a mock transport with no schema descriptor data")
	}
}

func TestResolveProfileUnknownModelMisses(t *testing.T) {
	if _, ok := ResolveProfile("nonexistent-model-xyz"); ok {
		t.Error("expected unknown model to miss")
	}
}
