package colors

// Kanagawa palette
const (
	// wave
	fujiWhite   = "#DCD7BA"
	fujiGray    = "#727169"
	oniViolet   = "#957FB8"
	crystalBlue = "#7E9CD8"
	springBlue  = "#7FB4CA"
	springGreen = "#98BB6C"
	roninYellow = "#FF9E3B"
	peachRed    = "#FF5D62"
	samuraiRed  = "#E82424"
	waveAqua2   = "#7AA89F"

	// dragon
	dragonWhite  = "#C5C9C5"
	dragonAsh    = "#737C73"
	dragonGray   = "#A6A69C"
	dragonViolet = "#8992A7"
	dragonBlue2  = "#8BA4B0"
	dragonGreen2 = "#8A9A7B"
	dragonYellow = "#C4B28A"
	dragonOrange = "#B6927B"
	dragonRed    = "#C4746E"

	// lotus
	lotusInk1    = "#545464"
	lotusGray3   = "#8A8980"
	lotusViolet4 = "#624C83"
	lotusBlue4   = "#4D699B"
	lotusTeal1   = "#4E8CA2"
	lotusGreen   = "#6F894E"
	lotusOrange  = "#CC6D00"
	lotusRed     = "#C84053"
	lotusRed3    = "#E82424"
)
