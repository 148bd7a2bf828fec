// Package models defines the core domain models for billplanner.
//
// # Models
//
//   - User: registered account; every other record is tagged with its ID
//   - Bill: a payable amount, optionally split into installments
//   - Installment: one scheduled portion of a bill's total
//   - BudgetEntry: a recurring monthly income or fixed cost
//
// Monetary values use decimal.Decimal and are kept at two decimal places.
//
// # Invariants
//
//  1. Sum of a bill's installment amounts equals Bill.TotalAmount
//  2. Bill.PaidAmount equals the sum of its paid installments
//  3. Installment status only moves from open to paid
//  4. Relationships are ID strings, never pointers
package models
