package razorpay

import "github.com/sirsiprashanth/trigr-payments/internal/domain"

// ExtractCustomerInfo scans the known payload locations for customer
// identification, in priority order. Each source only fills fields the
// stronger sources left unset, and empty strings are never produced.
//
// Order: payment entity direct fields, payment notes, order notes, then the
// top-level redirect fields guarded by a payment_id match.
func ExtractCustomerInfo(event *Event) domain.CustomerInfo {
	var info domain.CustomerInfo

	payment := event.PaymentEntity()
	if payment != nil {
		info.Email = payment.Email
		info.Phone = payment.Contact
		fillFromNotes(&info, payment.Notes)
	}

	if order := event.OrderEntity(); order != nil {
		fillFromNotes(&info, order.Notes)
	}

	// Redirect payloads repeat customer fields at the top level. Only trust
	// them when they reference the same payment.
	if payment != nil && event.PaymentID != "" && event.PaymentID == payment.ID {
		if info.Email == "" {
			info.Email = event.Email
		}
		if info.Phone == "" {
			info.Phone = event.Contact
		}
		if info.FullName == "" {
			info.FullName = event.Name
		}
	}

	return info
}

// fillFromNotes fills still-unset fields from a notes map. The name can hide
// under several keys depending on which checkout screen set it.
func fillFromNotes(info *domain.CustomerInfo, notes Notes) {
	if len(notes) == 0 {
		return
	}
	if info.FullName == "" {
		info.FullName = notes.First("full_name", "name", "customer_name")
	}
	if info.Email == "" {
		info.Email = notes["email"]
	}
	if info.Phone == "" {
		info.Phone = notes.First("contact", "phone")
	}
}
