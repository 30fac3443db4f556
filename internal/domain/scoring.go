package domain

// lineScores is indexed by the number of rows cleared at once.
var lineScores = [...]int{0, 100, 300, 500, 800}

// LinesPerLevel is how many cleared rows advance the level by one.
const LinesPerLevel = 10

// HardDropPointsPerRow is awarded for each row a hard drop descends.
const HardDropPointsPerRow = 2

// LineClearScore returns the points for clearing n rows at the given level.
// n must be within 0..4.
func LineClearScore(n, level int) int {
	return lineScores[n] * level
}

// LevelForLines returns the level reached after clearing total rows.
func LevelForLines(total int) int {
	return total/LinesPerLevel + 1
}

// AttackRows returns how many garbage rows a clear of n rows sends.
func AttackRows(n int) int {
	if n < 2 {
		return 0
	}
	return n / 2
}
