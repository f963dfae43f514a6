package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Save сохраняет новый заказ и возвращает его с назначенным идентификатором.
	// Если reference уже занят, возвращает ErrOrderReferenceTaken.
	Save(order Order) (Order, error)
	// SaveLine сохраняет позицию заказа и возвращает её с назначенным идентификатором.
	SaveLine(line OrderLine) (OrderLine, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
	Get(id int64) (Order, error)
	// List возвращает все заказы, отсортированные от новых к старым.
	List() ([]Order, error)
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// Create сохраняет новый товар и возвращает его с назначенным идентификатором.
	Create(product Product) (Product, error)
	// Get возвращает товар или ErrProductNotFound, если его нет.
	Get(id int64) (Product, error)
	// List возвращает все товары, отсортированные по идентификатору.
	List() ([]Product, error)
	// FindByIDs возвращает существующие товары по списку идентификаторов,
	// отсортированные по id. Отсутствующие идентификаторы молча пропускаются —
	// вызывающая сторона обязана сверить размеры выборки.
	FindByIDs(ids []int64) ([]Product, error)
	// SaveAll атомарно применяет обновления ко всем переданным товарам с учётом
	// optimistic locking: при конфликте версии хотя бы одного товара ни одна
	// запись не изменяется и возвращается ErrProductVersionConflict.
	SaveAll(products []Product) ([]Product, error)
}
