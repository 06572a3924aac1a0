package gungi

// formation is Player1's starting layout, rows 0..2. Player2 mirrors it onto rows 8..6.
var formation = [3][Cols]PieceType{
	{Lancer, Knight, MajorGeneral, General, Marshal, LieutenantGeneral, MajorGeneral, Knight, Lancer},
	{Samurai, Bow, Fortress, Spy, Captain, Spy, Fortress, Bow, Samurai},
	{Pawn, Musketeer, Pawn, PieceNone, Pawn, PieceNone, Pawn, Cannon, Pawn},
}

func initialBoard() Board {
	var board Board
	for r, row := range formation {
		for col, pieceType := range row {
			if pieceType == PieceNone {
				continue
			}
			board.cells[index(r, col, 0)] = Piece{Type: pieceType, Player: Player1}
			board.cells[index(Rows-1-r, col, 0)] = Piece{Type: pieceType, Player: Player2}
		}
	}
	return board
}
