package relq_test

import (
	"context"
	"fmt"

	"github.com/relqio/relq"
)

// Example demonstrates the basic enqueue/take/finalize lifecycle against the
// in-memory adapter.
func Example() {
	q := relq.NewMemoryQueue[int]()
	defer q.Close()

	ok, err := q.Enqueue(context.Background(), relq.NewMessage(1, []byte("hello")))
	if err != nil || !ok {
		panic(err)
	}

	msg, err := q.Take(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Printf("received: %s\n", msg.Content)

	if err := q.Finalize(context.Background(), msg.ID); err != nil {
		panic(err)
	}

	size, err := q.EphemeralSize(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Printf("ephemeral size after finalize: %d\n", size)

	// Output:
	// received: hello
	// ephemeral size after finalize: 0
}

// Example_requeue demonstrates putting a message back to work after a
// consumer decides it failed.
func Example_requeue() {
	q := relq.NewMemoryQueue[string]()
	defer q.Close()

	if _, err := q.Enqueue(context.Background(), relq.NewMessage("order-42", []byte("payload"))); err != nil {
		panic(err)
	}

	msg, err := q.Take(context.Background())
	if err != nil {
		panic(err)
	}

	// Processing failed; put it back for another consumer to try.
	if _, err := q.Requeue(context.Background(), msg); err != nil {
		panic(err)
	}

	retried, err := q.Take(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Printf("num requeues: %d\n", retried.NumRequeues)

	// Output:
	// num requeues: 1
}
