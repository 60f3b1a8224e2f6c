/*
Package resilience provides the circuit breaker guarding the relay's calls to
the generation API.

The relay never retries upstream calls; the breaker only stops it from
hammering a provider that is already failing. Errors the caller classifies as
non-failures (IsFailure returning false) leave the counts untouched except for
success bookkeeping, so a burst of invalid prompts cannot open the circuit.

# Usage

	breaker := resilience.New("gemini", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	text, err := resilience.Execute(breaker, func() (string, error) {
		return client.call(ctx, prompt)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
