package domain

// Customer — краткая карточка клиента, возвращаемая внешним customer-сервисом.
// Сервис заказов клиентов не хранит, только ссылается по идентификатору.
type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}
