package tether_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	tether "github.com/tetherd/tether.go"
	"github.com/tetherd/tether.go/pkg/provider"
)

// ExampleNew supervises a provider that refuses the first two connection
// attempts and then succeeds, the way a server restart looks from the
// client side.
func ExampleNew() {
	attempts := 0
	prov := provider.Func[string](func(ctx context.Context, onLoss provider.LossFunc) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection refused")
		}
		return fmt.Sprintf("session-%d", attempts), nil
	})

	sup, err := tether.New[string](
		prov,
		func(session string) {
			fmt.Println("connected:", session)
		},
		func(err error, detail any) error {
			// Acknowledge the loss so reconnection can begin.
			return nil
		},
		tether.WithRetryInterval(10*time.Millisecond),
		tether.WithRetryAttempts(5),
		tether.WithRetryFailureHook(func(err error, remaining int) {
			fmt.Printf("attempt failed (%v), attempts remaining: %d\n", err, remaining)
		}),
		tether.WithFailureHook(func(err error) {
			fmt.Println("permanent failure:", err)
		}),
	)
	if err != nil {
		panic(err)
	}

	session, err := sup.Start(context.Background())
	fmt.Println("started with:", session, "error:", err)

	// Output:
	// attempt failed (connection refused), attempts remaining: 4
	// attempt failed (connection refused), attempts remaining: 3
	// connected: session-3
	// started with: session-3 error: <nil>
}
