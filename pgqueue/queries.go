package pgqueue

import "fmt"

// Queries are built with fmt.Sprintf because table identifiers cannot be
// bound as query parameters; the identifiers come only from Config, never
// from request-time input, so this does not open an injection surface.

func insertQuery(table string) string {
	return fmt.Sprintf(`
INSERT INTO %s (queue_id, msg_org_timestamp, msg_timestamp, msg_num_requeues, msg_content)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (queue_id) DO NOTHING
RETURNING queue_id`, table)
}

// selectForTakeQuery claims the oldest (or newest, for LIFO) unlocked row.
// FOR UPDATE SKIP LOCKED means two concurrent Take calls never contend for
// the same row; each simply sees the other's row as absent.
func selectForTakeQuery(table string, fifo bool) string {
	order := "ASC"
	if !fifo {
		order = "DESC"
	}
	return fmt.Sprintf(`
SELECT queue_id, msg_org_timestamp, msg_timestamp, msg_num_requeues, msg_content
FROM %s
ORDER BY msg_timestamp %s
LIMIT 1
FOR UPDATE SKIP LOCKED`, table, order)
}

func deleteByIDQuery(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE queue_id = $1`, table)
}

// insertEphemeralQuery moves a row into the ephemeral table. msg_timestamp
// carries over unchanged (the last enqueue/requeue instant, returned to
// callers as Message.Timestamp); msg_taken_at is the separate take-instant
// clock Orphans ages against, so a later requeue restores the original
// msg_timestamp rather than the time it spent held.
func insertEphemeralQuery(table string) string {
	return fmt.Sprintf(`
INSERT INTO %s (queue_id, msg_org_timestamp, msg_timestamp, msg_num_requeues, msg_content, msg_taken_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (queue_id) DO UPDATE SET
    msg_timestamp = EXCLUDED.msg_timestamp,
    msg_num_requeues = EXCLUDED.msg_num_requeues,
    msg_taken_at = EXCLUDED.msg_taken_at`, table)
}

func selectOrphansQuery(table string) string {
	return fmt.Sprintf(`
SELECT queue_id, msg_org_timestamp, msg_timestamp, msg_num_requeues, msg_content
FROM %s
WHERE msg_taken_at < $1
ORDER BY msg_taken_at ASC
LIMIT $2`, table)
}

func countQuery(table string) string {
	return fmt.Sprintf(`SELECT count(*) FROM %s`, table)
}
