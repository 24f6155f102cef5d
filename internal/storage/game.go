package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// RecordNewGame asynchronously records a new game
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game record", func(tx *sql.Tx) error {
		if record.Result == "" {
			record.Result = "*"
		}
		_, err := tx.Exec(`INSERT INTO games (
			game_id, initial_fen,
			white_player_id, white_type, white_level, white_search_time,
			black_player_id, black_type, black_level, black_search_time,
			start_time_utc, result, termination, end_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.InitialFEN,
			record.WhitePlayerID, record.WhiteType, record.WhiteLevel, record.WhiteSearchTime,
			record.BlackPlayerID, record.BlackType, record.BlackLevel, record.BlackSearchTime,
			record.StartTimeUTC, record.Result, record.Termination, record.EndTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, move_uci, fen_after_move, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?)`,
			record.GameID, record.MoveNumber, record.MoveUCI,
			record.FENAfterMove, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// RecordGameResult asynchronously stores the final result of a game
func (s *Store) RecordGameResult(result GameResult) {
	s.enqueue("game result", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET result = ?, termination = ?, end_time_utc = ? WHERE game_id = ?`,
			result.Result, result.Termination, result.EndTimeUTC, result.GameID)
		return err
	})
}

// DeleteUndoneMoves asynchronously deletes moves after undo. An undo always
// reopens the game, so any stored result is cleared too.
func (s *Store) DeleteUndoneMoves(gameID string, afterMoveNumber int) {
	s.enqueue("undo operation", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM moves WHERE game_id = ? AND move_number > ?`, gameID, afterMoveNumber); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE games SET result = '*', termination = '', end_time_utc = NULL WHERE game_id = ?`, gameID)
		return err
	})
}

// QueryGames retrieves games, newest first. Empty or "*" filters match everything.
func (s *Store) QueryGames(gameID, playerID string) ([]GameRecord, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT
		game_id, initial_fen,
		white_player_id, white_type, white_level, white_search_time,
		black_player_id, black_type, black_level, black_search_time,
		start_time_utc, result, termination, end_time_utc
	FROM games WHERE 1=1`)

	if gameID != "" && gameID != "*" {
		query.WriteString(" AND game_id = ?")
		args = append(args, gameID)
	}
	if playerID != "" && playerID != "*" {
		query.WriteString(" AND (white_player_id = ? OR black_player_id = ?)")
		args = append(args, playerID, playerID)
	}
	query.WriteString(" ORDER BY start_time_utc DESC")

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var (
			g   GameRecord
			end sql.NullTime
		)
		err := rows.Scan(
			&g.GameID, &g.InitialFEN,
			&g.WhitePlayerID, &g.WhiteType, &g.WhiteLevel, &g.WhiteSearchTime,
			&g.BlackPlayerID, &g.BlackType, &g.BlackLevel, &g.BlackSearchTime,
			&g.StartTimeUTC, &g.Result, &g.Termination, &end,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if end.Valid {
			g.EndTimeUTC = &end.Time
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

// QueryMoves returns the stored moves of a game in play order.
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT
		move_id, game_id, move_number, move_uci, fen_after_move, player_color, move_time_utc
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.MoveID, &m.GameID, &m.MoveNumber, &m.MoveUCI,
			&m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}
