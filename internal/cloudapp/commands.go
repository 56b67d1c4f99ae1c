package cloudapp

// TrackCommand builds a command that logs value into the tracker named label.
func TrackCommand(label, value string) string {
	return "/action=track/label=" + label + "/value=" + value
}

// BuildCommands returns one track command per slot the user has linked.
func BuildCommands(c Capture, s Summary) []string {
	var cmds []string
	if label, ok := c.TrackerLabel(SlotTemp); ok {
		cmds = append(cmds, TrackCommand(label, s.RecordedTemp(c.TempType())))
	}
	if label, ok := c.TrackerLabel(SlotHumidity); ok {
		cmds = append(cmds, TrackCommand(label, s.Humidity))
	}
	if label, ok := c.TrackerLabel(SlotPressure); ok {
		cmds = append(cmds, TrackCommand(label, s.Pressure))
	}
	return cmds
}
