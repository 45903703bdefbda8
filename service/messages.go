package service

var messages = map[string]map[string]string{
	"es": {
		"new_reservation":       "🔔 Nueva reserva en %s: %d min, llega en %d min.",
		"driver_arrived":        "🚗 El conductor llegó a %s.",
		"vehicle_parked":        "🅿️ Tu vehículo está estacionado en %s. Tiempo reservado: %d min.",
		"extra_time_request":    "⏱ El conductor pide %d min extra en %s.",
		"extra_time_approved":   "✅ Se aprobaron %d min extra. Nuevo tiempo: %d min.",
		"extra_time_rejected":   "❌ El arrendador rechazó el tiempo extra. %s",
		"penalty_warning":       "Se cobrarán $%d por cada %d minutos adicionales.",
		"cancelled_by_driver":   "⚠️ El conductor canceló la reserva en %s.",
		"cancelled_by_landlord": "⚠️ El arrendador canceló la reserva en %s.",
		"cancelled_self":        "Cancelaste la reserva en %s.",
		"completed":             "🏁 Reserva finalizada en %s. Tiempo: %d min. Total: $%d.",
		"eta_expired_driver":    "⌛ Se agotó tu tiempo de llegada a %s.",
		"reservation_expired":   "⌛ El conductor no llegó a tiempo a %s.",
	},
}

const lang = "es"

func msg(key string) string {
	return messages[lang][key]
}
