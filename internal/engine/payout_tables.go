package engine

// DefaultFieldSize is the 5x5 Mines board.
const DefaultFieldSize = 25

// DefaultHouseEdge applies to every derived curve.
const DefaultHouseEdge = 0.01

// classicCurves are the hand-tuned curves the board shipped with on a 25 cell
// field. Mine counts without an entry use FairCurve.
var classicCurves = map[int][]float64{
	1:  {1.05, 1.1, 1.15, 1.2, 1.25, 1.3, 1.35, 1.4, 1.45, 1.5, 1.55, 1.6, 1.65, 1.7, 1.75, 1.8, 1.85, 1.9, 1.95, 2.0, 2.05, 2.1, 2.15, 2.2},
	2:  {1.08, 1.15, 1.22, 1.3, 1.38, 1.46, 1.55, 1.65, 1.75, 1.85, 1.95, 2.05, 2.15, 2.25, 2.35, 2.45, 2.55, 2.65, 2.75, 2.85, 2.95, 3.05, 3.15},
	3:  {1.1, 1.3, 1.6, 2.0, 2.5, 3.2, 4.0, 5.0, 6.5, 8.0, 10.0, 12.5, 15.0, 18.0, 22.0, 26.0, 30.0, 35.0, 40.0, 45.0, 50.0, 55.0},
	5:  {1.1, 1.3, 1.6, 2.0, 2.5, 3.2, 4.0, 5.0, 6.5, 8.0, 10.0, 12.5, 15.0, 18.0, 22.0, 26.0, 30.0, 35.0, 40.0, 45.0, 50.0, 55.0},
	8:  {1.2, 1.5, 1.9, 2.4, 3.0, 3.8, 4.8, 6.0, 7.5, 9.5, 12.0, 15.0, 18.0, 22.0, 27.0, 33.0, 40.0, 48.0, 58.0, 70.0, 85.0, 100.0},
	10: {1.3, 1.7, 2.2, 2.8, 3.6, 4.6, 5.9, 7.5, 9.5, 12.0, 15.0, 19.0, 24.0, 30.0, 38.0, 48.0, 60.0, 75.0, 95.0, 120.0, 150.0, 180.0},
	15: {1.5, 2.0, 2.7, 3.6, 4.8, 6.5, 8.7, 11.5, 15.0, 20.0, 26.0, 34.0, 44.0, 57.0, 74.0, 96.0, 125.0, 160.0, 200.0, 250.0, 300.0, 350.0},
	20: {2.0, 2.8, 4.0, 5.5, 7.5, 10.5, 14.5, 20.0, 27.5, 37.5, 50.0, 68.0, 92.0, 125.0, 170.0, 230.0, 310.0, 420.0, 570.0, 770.0, 1000.0, 1300.0},
}

// DefaultCurves returns a curve for every mine count in [1, fieldSize).
// Classic curves are cut to the number of safe cells.
func DefaultCurves(fieldSize int, houseEdge float64) map[int][]float64 {
	curves := make(map[int][]float64, fieldSize-1)
	for mines := 1; mines < fieldSize; mines++ {
		if classic, ok := classicCurves[mines]; ok && fieldSize == DefaultFieldSize {
			safe := fieldSize - mines
			if len(classic) > safe {
				classic = classic[:safe]
			}
			curves[mines] = append([]float64(nil), classic...)
			continue
		}
		curves[mines] = FairCurve(fieldSize, mines, houseEdge)
	}
	return curves
}

// DefaultPayoutTable is the table for the stock 25 cell board.
func DefaultPayoutTable() *PayoutTable {
	table, err := NewPayoutTable(DefaultFieldSize, DefaultCurves(DefaultFieldSize, DefaultHouseEdge))
	if err != nil {
		panic(err)
	}
	return table
}
