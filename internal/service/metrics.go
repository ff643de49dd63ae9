package service

import "github.com/prometheus/client_golang/prometheus"

var (
	usersRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitness_users_registered_total",
		Help: "Count of registered users",
	})
	ordersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitness_orders_placed_total",
		Help: "Count of placed orders",
	})
	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fitness_order_transitions_total", Help: "Order status changes"},
		[]string{"to"},
	)
)

func init() { prometheus.MustRegister(usersRegistered, ordersPlaced, orderTransitions) }
