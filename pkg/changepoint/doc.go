// Package changepoint implements Bayesian multiple-changepoint estimation for
// Poisson count series. A series is modeled as an (m+1)-state left-to-right
// hidden Markov chain: each state carries one Poisson rate, the chain starts
// in the first state, and once it leaves a state it never returns. Posterior
// inference runs by Gibbs sampling: the latent regime path is drawn jointly by
// forward-filtering/backward-sampling, then rates and transition probabilities
// are drawn from their Gamma-Poisson and Beta conjugate full conditionals.
//
// The package also estimates the log marginal likelihood of a fitted model via
// Chib's method, so competing changepoint counts can be compared with Bayes
// factors, and reduces retained draws into per-regime posterior summaries and
// per-time-point regime-occupancy probabilities.
package changepoint
