package redisqueue

import "github.com/redis/go-redis/v9"

// takeScriptEphemeralEnabled pops the head of the list; if an id was popped,
// it is scored into the sorted set at ARGV[1] (the take timestamp, supplied
// by the caller so the score reflects the consumer's clock) and its payload
// is read back from the hash without deleting it — the hash entry survives
// until Finalize or Requeue. KEYS: list, sorted set, hash.
var takeScriptEphemeralEnabled = redis.NewScript(`
local qid = redis.call("lpop", KEYS[1])
if qid then
	redis.call("zadd", KEYS[2], ARGV[1], qid)
	return {qid, redis.call("hget", KEYS[3], qid)}
else
	return false
end
`)

// takeScriptEphemeralDisabled pops the head of the list and, if an id was
// popped, reads and deletes its hash entry in the same round trip — there
// is no holding area to reconcile against. KEYS: list, hash.
var takeScriptEphemeralDisabled = redis.NewScript(`
local qid = redis.call("lpop", KEYS[1])
if qid then
	local content = redis.call("hget", KEYS[2], qid)
	redis.call("hdel", KEYS[2], qid)
	return {qid, content}
else
	return false
end
`)
