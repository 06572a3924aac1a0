// Package archive stores finished games as parquet move logs so they can be
// replayed and settled after they have left Redis.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/rocketscienceinc/gungi-backend/internal/apperror"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

const schemaVersion = "gungi_move_v1"

const (
	metaSchema     = "schema"
	metaGameID     = "game_id"
	metaStartTime  = "start_time"
	metaStatus     = "status"
	metaWinner     = "winner"
	metaDrawReason = "draw_reason"
)

var ErrNotArchived = errors.New("game is not archived")

// MoveRow is one accepted move of an archived game.
type MoveRow struct {
	GameID         string `parquet:"game_id,dict"`
	MoveNumber     int32  `parquet:"move_number"`
	Player         int32  `parquet:"player"`
	PieceType      string `parquet:"piece_type,dict"`
	FromRow        int32  `parquet:"from_row"`
	FromCol        int32  `parquet:"from_col"`
	FromTier       int32  `parquet:"from_tier"`
	ToRow          int32  `parquet:"to_row"`
	ToCol          int32  `parquet:"to_col"`
	ToTier         int32  `parquet:"to_tier"`
	IsCapture      bool   `parquet:"is_capture"`
	CapturedType   string `parquet:"captured_type,dict"`
	CapturedPlayer int32  `parquet:"captured_player"`
	PositionHash   int64  `parquet:"position_hash"`
	// Timestamp is unix nanoseconds in UTC.
	Timestamp int64 `parquet:"timestamp"`
}

// Game is an archived move log together with the result it was archived with.
type Game struct {
	ID         string
	StartTime  time.Time
	Status     gungi.Status
	Winner     gungi.Player
	DrawReason gungi.DrawReason
	Rows       []MoveRow
}

// Replayer rebuilds a game from its move history.
type Replayer interface {
	Replay(id string, start time.Time, records []gungi.MoveRecord) (*gungi.GameState, error)
}

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (that *Writer) Path(gameID string) string {
	return filepath.Join(that.dir, "game_"+gameID+".parquet")
}

// Archive writes the move log of state to <dir>/game_<id>.parquet. Readers never
// observe a partial file.
func (that *Writer) Archive(state *gungi.GameState) (string, error) {
	if err := os.MkdirAll(that.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	rows := make([]MoveRow, 0, len(state.Moves))
	for _, record := range state.Moves {
		rows = append(rows, rowFromRecord(state.ID, record))
	}

	outPath := that.Path(state.ID)
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata(metaSchema, schemaVersion),
		parquet.KeyValueMetadata(metaGameID, state.ID),
		parquet.KeyValueMetadata(metaStartTime, strconv.FormatInt(state.StartTime.UnixNano(), 10)),
		parquet.KeyValueMetadata(metaStatus, string(state.Status)),
		parquet.KeyValueMetadata(metaWinner, strconv.Itoa(int(state.Winner))),
		parquet.KeyValueMetadata(metaDrawReason, string(state.DrawReason)),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return outPath, nil
}

// Load reads the archive of gameID from the writer's directory.
func (that *Writer) Load(gameID string) (*Game, error) {
	return ReadGame(that.Path(gameID))
}

func ReadGame(path string) (*Game, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotArchived, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	game, err := gameFromMetadata(pf)
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[MoveRow](pf)
	defer reader.Close()

	rows := make([]MoveRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	game.Rows = rows[:n]

	return game, nil
}

func gameFromMetadata(pf *parquet.File) (*Game, error) {
	lookup := func(key string) string {
		value, _ := pf.Lookup(key)
		return value
	}

	if schema := lookup(metaSchema); schema != schemaVersion {
		return nil, fmt.Errorf("unsupported archive schema %q", schema)
	}

	startNanos, err := strconv.ParseInt(lookup(metaStartTime), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}

	winner, err := strconv.Atoi(lookup(metaWinner))
	if err != nil {
		return nil, fmt.Errorf("parse winner: %w", err)
	}

	return &Game{
		ID:         lookup(metaGameID),
		StartTime:  time.Unix(0, startNanos).UTC(),
		Status:     gungi.Status(lookup(metaStatus)),
		Winner:     gungi.Player(winner),
		DrawReason: gungi.DrawReason(lookup(metaDrawReason)),
	}, nil
}

// Records converts the archived rows back into the engine's move history.
func (that *Game) Records() ([]gungi.MoveRecord, error) {
	records := make([]gungi.MoveRecord, 0, len(that.Rows))

	for _, row := range that.Rows {
		record, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", row.MoveNumber, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// Settle replays the archive and returns the resulting state, failing when the
// rules no longer arrive at the archived result.
func (that *Game) Settle(engine Replayer) (*gungi.GameState, error) {
	records, err := that.Records()
	if err != nil {
		return nil, err
	}

	state, err := engine.Replay(that.ID, that.StartTime, records)
	if err != nil {
		return nil, fmt.Errorf("replay archive: %w", err)
	}

	if state.Status != that.Status || state.Winner != that.Winner || state.DrawReason != that.DrawReason {
		return nil, fmt.Errorf("%w: archived %s, replayed %s", apperror.ErrReplayMismatch, that.Status, state.Status)
	}

	return state, nil
}

func rowFromRecord(gameID string, record gungi.MoveRecord) MoveRow {
	row := MoveRow{
		GameID:       gameID,
		MoveNumber:   int32(record.MoveNumber),
		Player:       int32(record.Player),
		PieceType:    record.PieceType.String(),
		FromRow:      int32(record.From.Row),
		FromCol:      int32(record.From.Col),
		FromTier:     int32(record.From.Tier),
		ToRow:        int32(record.To.Row),
		ToCol:        int32(record.To.Col),
		ToTier:       int32(record.To.Tier),
		IsCapture:    record.IsCapture,
		PositionHash: int64(record.PositionHash),
		Timestamp:    record.Timestamp.UnixNano(),
	}

	if record.IsCapture {
		row.CapturedType = record.Captured.Type.String()
		row.CapturedPlayer = int32(record.Captured.Player)
	}

	return row
}

func recordFromRow(row MoveRow) (gungi.MoveRecord, error) {
	pieceType, err := gungi.ParsePieceType(row.PieceType)
	if err != nil {
		return gungi.MoveRecord{}, err
	}

	record := gungi.MoveRecord{
		MoveNumber:   int(row.MoveNumber),
		Player:       gungi.Player(row.Player),
		PieceType:    pieceType,
		From:         gungi.Coord{Row: int(row.FromRow), Col: int(row.FromCol), Tier: int(row.FromTier)},
		To:           gungi.Coord{Row: int(row.ToRow), Col: int(row.ToCol), Tier: int(row.ToTier)},
		IsCapture:    row.IsCapture,
		PositionHash: uint64(row.PositionHash),
		Timestamp:    time.Unix(0, row.Timestamp).UTC(),
	}

	if row.IsCapture {
		capturedType, err := gungi.ParsePieceType(row.CapturedType)
		if err != nil {
			return gungi.MoveRecord{}, err
		}
		record.Captured = gungi.Piece{Type: capturedType, Player: gungi.Player(row.CapturedPlayer)}
	}

	return record, nil
}
