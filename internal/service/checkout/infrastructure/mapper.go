// internal/service/checkout/infrastructure/mapper.go
package infrastructure

import "bazaar/internal/service/checkout/domain"

func toOrderModel(o *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemModel{
			OrderID:   o.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
			OnSale:    it.OnSale,
		})
	}
	return &OrderModel{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		Currency:       o.Currency,
		Subtotal:       o.Subtotal,
		Discount:       o.Discount,
		ShippingCost:   o.ShippingCost,
		Tax:            o.Tax,
		Total:          o.Total,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		PaymentMethod:  string(o.PaymentMethod),
		CouponCode:     o.CouponCode,
		CouponRedeemed: o.CouponRedeemed,
		ShipName:       o.ShippingAddress.Name,
		ShipLine1:      o.ShippingAddress.Line1,
		ShipLine2:      o.ShippingAddress.Line2,
		ShipCity:       o.ShippingAddress.City,
		ShipState:      o.ShippingAddress.State,
		ShipPostalCode: o.ShippingAddress.PostalCode,
		ShipCountry:    o.ShippingAddress.Country,
		ShipPhone:      o.ShippingAddress.Phone,
		Items:          items,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	items := make([]domain.OrderItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
			OnSale:    it.OnSale,
		})
	}
	return &domain.Order{
		ID:             m.ID,
		OrderNumber:    m.OrderNumber,
		CustomerID:     m.CustomerID,
		Currency:       m.Currency,
		Items:          items,
		Subtotal:       m.Subtotal,
		Discount:       m.Discount,
		ShippingCost:   m.ShippingCost,
		Tax:            m.Tax,
		Total:          m.Total,
		Status:         domain.Status(m.Status),
		PaymentStatus:  domain.PaymentStatus(m.PaymentStatus),
		PaymentMethod:  domain.PaymentMethod(m.PaymentMethod),
		CouponCode:     m.CouponCode,
		CouponRedeemed: m.CouponRedeemed,
		ShippingAddress: domain.Address{
			Name:       m.ShipName,
			Line1:      m.ShipLine1,
			Line2:      m.ShipLine2,
			City:       m.ShipCity,
			State:      m.ShipState,
			PostalCode: m.ShipPostalCode,
			Country:    m.ShipCountry,
			Phone:      m.ShipPhone,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toAttemptModel(a *domain.PaymentAttempt) *PaymentAttemptModel {
	return &PaymentAttemptModel{
		ID:               a.ID,
		OrderID:          a.OrderID,
		GatewayOrderID:   a.GatewayOrderID,
		GatewayPaymentID: a.GatewayPaymentID,
		Amount:           a.Amount,
		Currency:         a.Currency,
		Result:           string(a.Result),
		Verified:         a.Verified,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toDomainAttempt(m *PaymentAttemptModel) *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		ID:               m.ID,
		OrderID:          m.OrderID,
		GatewayOrderID:   m.GatewayOrderID,
		GatewayPaymentID: m.GatewayPaymentID,
		Amount:           m.Amount,
		Currency:         m.Currency,
		Result:           domain.AttemptResult(m.Result),
		Verified:         m.Verified,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
