package api

// Service accessors group Client methods by resource. Each service embeds
// *Client and only forwards fixed paths to the dispatcher.

type ModelsService struct{ *Client }

type FilesService struct{ *Client }

type FineTunesService struct{ *Client }

type ImagesService struct{ *Client }

type AudioService struct{ *Client }

func (c *Client) Models() ModelsService {
	return ModelsService{c}
}

func (c *Client) Files() FilesService {
	return FilesService{c}
}

func (c *Client) FineTunes() FineTunesService {
	return FineTunesService{c}
}

func (c *Client) Images() ImagesService {
	return ImagesService{c}
}

func (c *Client) Audio() AudioService {
	return AudioService{c}
}
