package route

import "audioroute/audio"

// decide maps a requested route onto the devices in inv. It returns the
// route that will actually be in effect and the session configuration that
// realizes it. A Bluetooth request is realized by any connected accessory
// that HasBluetooth counts; without one it resolves to the built-in
// configuration.
func decide(requested Route, inv audio.Inventory) (Route, audio.SessionConfig) {
	switch requested {
	case Speaker:
		out := inv.Find(audio.CategorySpeaker, audio.Output)
		if out == nil {
			out = inv.Find(audio.CategoryBuiltIn, audio.Output)
		}
		return Speaker, audio.SessionConfig{Output: idOf(out), SpeakerOverride: true}

	case Bluetooth:
		out := inv.Find(audio.CategoryBluetooth, audio.Output)
		in := inv.Find(audio.CategoryBluetooth, audio.Input)
		if out == nil && in == nil {
			return BuiltIn, builtInConfig(inv)
		}
		if out == nil {
			// Microphone-only accessory: play through the built-in output.
			out = inv.Find(audio.CategoryBuiltIn, audio.Output)
		}
		if in == nil {
			// Playback-only accessory: keep the built-in microphone.
			in = inv.Find(audio.CategoryBuiltIn, audio.Input)
		}
		return Bluetooth, audio.SessionConfig{Output: idOf(out), Input: idOf(in), Bluetooth: true}
	}
	return BuiltIn, builtInConfig(inv)
}

func builtInConfig(inv audio.Inventory) audio.SessionConfig {
	return audio.SessionConfig{
		Output: idOf(inv.Find(audio.CategoryBuiltIn, audio.Output)),
		Input:  idOf(inv.Find(audio.CategoryBuiltIn, audio.Input)),
	}
}

func idOf(d *audio.Device) string {
	if d == nil {
		return ""
	}
	return d.ID
}

// inEffect reports whether the host defaults in inv match cfg. Empty fields
// defer to the host and always match.
func inEffect(cfg audio.SessionConfig, inv audio.Inventory) bool {
	return (cfg.Output == "" || inv.DefaultOutput == cfg.Output) &&
		(cfg.Input == "" || inv.DefaultInput == cfg.Input)
}
