package bridge

import "path/filepath"

const (
	// InputFile is appended to by the bridge and read by the game.
	InputFile = "crc_input.txt"
	// OutputFile is appended to by the game and drained by the bridge.
	OutputFile = "crc_output.txt"
)

// GameLocation returns the game's install root for the path of its
// running executable, which lives one directory below the root.
func GameLocation(exe string) string {
	return filepath.Dir(filepath.Dir(exe))
}

// ConfigsDir returns the directory holding both bridge files.
func ConfigsDir(location string) string {
	return filepath.Join(location, "gamedata", "configs")
}
