// Command focusmutectl is a small debug/introspection binary, grounded in
// Rodrigo's tools/*.go one-shot debug programs: scan for a device, dump a
// descriptor page, print the predicted LED layout, or force a single LED
// color. It is not the tray app; there is no autostart, no hotkey, no
// config file. Arguments are read directly from os.Args, matching the
// teacher's own flag-free dispatch in main.go.
package main

import (
	"fmt"
	"os"
	"strconv"

	"focusmute"
	"focusmute/internal/led"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = cmdScan()
	case "descr":
		err = cmdDescr(os.Args[2:])
	case "layout":
		err = cmdLayout(os.Args[2:])
	case "meter":
		err = cmdMeter(os.Args[2:])
	case "color":
		err = cmdColor(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "focusmutectl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: focusmutectl <command> [args]

commands:
  scan                         list the attached device, if any
  descr <offset> <size>        dump a descriptor byte range as hex
  layout [serial]              print the predicted LED layout from schema
  meter <count>                read and print metering samples
  color <led-index> <color>    force one number LED to a color (#RRGGBB or name)`)
}

func cmdScan() error {
	devs, err := focusmute.ListDevices()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		fmt.Println("no Focusrite device found")
		return nil
	}
	for _, d := range devs {
		fmt.Printf("%-20s serial=%-16s firmware=%s path=%s\n", d.ProductName, d.Serial, d.FirmwareVersion, d.Path)
	}
	return nil
}

func cmdDescr(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("descr requires <offset> <size>")
	}
	offset, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", args[0], err)
	}
	size, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", args[1], err)
	}

	_, t, err := focusmute.OpenDevice("")
	if err != nil {
		return err
	}
	defer t.Close()

	data, err := focusmute.ReadDescriptor(t, uint32(offset), uint32(size))
	if err != nil {
		return err
	}
	fmt.Println(hexDump(data))
	return nil
}

func cmdLayout(args []string) error {
	serial := ""
	if len(args) > 0 {
		serial = args[0]
	}

	info, t, err := focusmute.OpenDevice(serial)
	if err != nil {
		return err
	}
	defer t.Close()

	if profile, ok := focusmute.ResolveProfile(info.Model()); ok {
		fmt.Printf("hardcoded profile: %s (%d inputs, %d LEDs)\n", profile.Name, profile.InputCount, profile.LEDCount)
		for i, h := range profile.InputHalos {
			fmt.Printf("  input %d -> number LED %d\n", i+1, h.NumberLED)
		}
		return nil
	}

	c, err := focusmute.ExtractSchema(t, nil, info.Model(), info.Firmware.String(), nil)
	if err != nil {
		return fmt.Errorf("no hardcoded profile for %q and schema extraction failed: %w", info.Model(), err)
	}
	predicted, err := focusmute.PredictLayout(c)
	if err != nil {
		return err
	}
	fmt.Printf("predicted profile: %s (%d inputs, %d LEDs)\n", c.ProductName, c.MaxInputs, c.MaxLEDs)
	for _, l := range predicted.LEDs {
		fmt.Printf("  LED %d: %s [%s]\n", l.Index, l.Label, l.Confidence)
	}
	return nil
}

func cmdMeter(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("meter requires <count>")
	}
	count, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", args[0], err)
	}

	_, t, err := focusmute.OpenDevice("")
	if err != nil {
		return err
	}
	defer t.Close()

	samples, err := focusmute.GetMeter(t, uint16(count))
	if err != nil {
		return err
	}
	for i, s := range samples {
		fmt.Printf("channel %d: %d\n", i, s)
	}
	return nil
}

func cmdColor(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("color requires <led-index> <color>")
	}
	idx, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid led index %q: %w", args[0], err)
	}
	color, err := led.ParseColor(args[1])
	if err != nil {
		return err
	}

	_, t, err := focusmute.OpenDevice("")
	if err != nil {
		return err
	}
	defer t.Close()

	return led.SetSingleLED(t, uint8(idx), color)
}
