// Package redisqueue implements relq.Queue backed by Redis, using three
// coordinated structures under one logical namespace: a hash holding
// serialized messages, a list holding the pending id sequence, and a sorted
// set holding the ids currently checked out by a consumer, scored by their
// take timestamp.
//
// The multi-structure Take operation runs as a server-side Lua script so
// the list-pop, hash-read, and sorted-set-add are atomic from the
// perspective of any other client.
//
// # Usage
//
//	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 3, RetryInterval: time.Second, ConnectTimeout: 10 * time.Second})
//	if err != nil {
//	    return err
//	}
//
//	q, err := redisqueue.New[uuid.UUID](client, redisqueue.UUIDCodec{})
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	ok, err := q.Enqueue(ctx, relq.NewMessage(uuid.New(), payload))
package redisqueue
