package notes

/*
 * Reference notes from B1 to B6.
 *
 * f(n) = 2^(n / 12) * 440
 *
 * Where n is the number of half-tone steps relative to A4. The range
 * reaches a fourth below the low E string and more than an octave above
 * the 12th fret harmonic of the high E string.
 */
var standardEntries = []Entry{
	{Name: "B1", Frequency: 61.7354},
	{Name: "C2", Frequency: 65.4064},
	{Name: "C#2", Frequency: 69.2957},
	{Name: "D2", Frequency: 73.4162},
	{Name: "D#2", Frequency: 77.7817},
	{Name: "E2", Frequency: 82.4069},
	{Name: "F2", Frequency: 87.3071},
	{Name: "F#2", Frequency: 92.4986},
	{Name: "G2", Frequency: 97.9989},
	{Name: "G#2", Frequency: 103.8262},
	{Name: "A2", Frequency: 110.0000},
	{Name: "A#2", Frequency: 116.5409},
	{Name: "B2", Frequency: 123.4708},
	{Name: "C3", Frequency: 130.8128},
	{Name: "C#3", Frequency: 138.5913},
	{Name: "D3", Frequency: 146.8324},
	{Name: "D#3", Frequency: 155.5635},
	{Name: "E3", Frequency: 164.8138},
	{Name: "F3", Frequency: 174.6141},
	{Name: "F#3", Frequency: 184.9972},
	{Name: "G3", Frequency: 195.9978},
	{Name: "G#3", Frequency: 207.6523},
	{Name: "A3", Frequency: 220.0000},
	{Name: "A#3", Frequency: 233.0819},
	{Name: "B3", Frequency: 246.9417},
	{Name: "C4", Frequency: 261.6256},
	{Name: "C#4", Frequency: 277.1826},
	{Name: "D4", Frequency: 293.6648},
	{Name: "D#4", Frequency: 311.1270},
	{Name: "E4", Frequency: 329.6276},
	{Name: "F4", Frequency: 349.2282},
	{Name: "F#4", Frequency: 369.9944},
	{Name: "G4", Frequency: 391.9954},
	{Name: "G#4", Frequency: 415.3047},
	{Name: "A4", Frequency: 440.0000},
	{Name: "A#4", Frequency: 466.1638},
	{Name: "B4", Frequency: 493.8833},
	{Name: "C5", Frequency: 523.2511},
	{Name: "C#5", Frequency: 554.3653},
	{Name: "D5", Frequency: 587.3295},
	{Name: "D#5", Frequency: 622.2540},
	{Name: "E5", Frequency: 659.2551},
	{Name: "F5", Frequency: 698.4565},
	{Name: "F#5", Frequency: 739.9888},
	{Name: "G5", Frequency: 783.9909},
	{Name: "G#5", Frequency: 830.6094},
	{Name: "A5", Frequency: 880.0000},
	{Name: "A#5", Frequency: 932.3275},
	{Name: "B5", Frequency: 987.7666},
	{Name: "C6", Frequency: 1046.5023},
	{Name: "C#6", Frequency: 1108.7305},
	{Name: "D6", Frequency: 1174.6591},
	{Name: "D#6", Frequency: 1244.5079},
	{Name: "E6", Frequency: 1318.5102},
	{Name: "F6", Frequency: 1396.9129},
	{Name: "F#6", Frequency: 1479.9777},
	{Name: "G6", Frequency: 1567.9817},
	{Name: "G#6", Frequency: 1661.2188},
	{Name: "A6", Frequency: 1760.0000},
	{Name: "A#6", Frequency: 1864.6550},
	{Name: "B6", Frequency: 1975.5332},
}

/*
 * Open strings of a six string guitar in standard tuning, low to high.
 */
var StandardTuning = [6]string{"E2", "A2", "D3", "G3", "B3", "E4"}

/*
 * Returns the built-in chromatic catalogue.
 */
func Standard() *Table {
	t, err := NewTable(standardEntries)

	/*
	 * The built-in list is constant, so this is a programming error.
	 */
	if err != nil {
		panic(err)
	}

	return t
}
